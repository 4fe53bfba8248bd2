package issuance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rmap/internal/domain"
)

// ErrInvalidTicket rejects a release attempt whose ticket was not minted
// by a session consume. It is distinct from ErrAlreadyReleased: nothing
// has been released for the session yet.
var ErrInvalidTicket = errors.New("issuance: invalid ticket")

// Gate enforces at-most-once release of each session's secret.
type Gate struct {
	mu           sync.Mutex
	released     map[domain.SessionID]domain.Handle
	personalizer domain.Personalizer
}

// NewGate returns a Gate that hands released secrets to p.
func NewGate(p domain.Personalizer) *Gate {
	return &Gate{
		released:     make(map[domain.SessionID]domain.Handle),
		personalizer: p,
	}
}

// Release hands the secret to the personalization collaborator and returns
// the opaque retrieval handle. A ticket without both a session id and a
// token fails with ErrInvalidTicket; a second call for the same session
// fails with ErrAlreadyReleased, whatever ticket it presents.
func (g *Gate) Release(ctx context.Context, t domain.Ticket, identity string, secret domain.Secret) (domain.Handle, error) {
	if t.SessionID == "" || t.Token == "" {
		return "", fmt.Errorf("%w: no issue ticket", ErrInvalidTicket)
	}

	g.mu.Lock()
	if _, done := g.released[t.SessionID]; done {
		g.mu.Unlock()
		return "", domain.ErrAlreadyReleased
	}
	handle := domain.Handle(uuid.NewString())
	g.released[t.SessionID] = handle
	g.mu.Unlock()

	if err := g.personalizer.Personalize(ctx, identity, handle, secret); err != nil {
		return "", fmt.Errorf("personalize: %w", err)
	}
	return handle, nil
}
