package issuance

import (
	"context"
	"fmt"
	"sync"

	"rmap/internal/domain"
)

// StubPersonalizer is an in-memory personalization collaborator. It stands
// in for the watermarking pipeline: the artifact is a plain text document
// bound to the identity and link, registered under the handle.
type StubPersonalizer struct {
	mu        sync.Mutex
	artifacts map[domain.Handle][]byte
}

// NewStubPersonalizer returns an empty stub.
func NewStubPersonalizer() *StubPersonalizer {
	return &StubPersonalizer{artifacts: make(map[domain.Handle][]byte)}
}

// Personalize registers an artifact for handle.
func (p *StubPersonalizer) Personalize(_ context.Context, identity string, handle domain.Handle, secret domain.Secret) error {
	artifact := fmt.Sprintf("personalized document for %s\nlink: %s\n", identity, secret.Hex())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.artifacts[handle] = []byte(artifact)
	return nil
}

// Fetch retrieves the artifact registered under handle.
func (p *StubPersonalizer) Fetch(_ context.Context, handle domain.Handle) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	artifact, ok := p.artifacts[handle]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return artifact, nil
}

// Compile-time assertion that StubPersonalizer implements domain.Personalizer.
var _ domain.Personalizer = (*StubPersonalizer)(nil)
