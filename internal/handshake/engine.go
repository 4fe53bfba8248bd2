package handshake

import (
	"context"
	"errors"
	"log"

	"rmap/internal/codec"
	"rmap/internal/crypto"
	"rmap/internal/domain"
	"rmap/internal/identity"
	"rmap/internal/issuance"
)

// maxOpenAttempts bounds server-nonce regeneration when a fresh nonce
// collides with an outstanding session.
const maxOpenAttempts = 4

// Engine processes inbound protocol envelopes on the server.
type Engine struct {
	resolver *identity.Resolver
	sessions domain.SessionStore
	gate     *issuance.Gate
}

// NewEngine wires the engine to its collaborators.
func NewEngine(resolver *identity.Resolver, sessions domain.SessionStore, gate *issuance.Gate) *Engine {
	return &Engine{resolver: resolver, sessions: sessions, gate: gate}
}

// ProcessMessage1 validates a client's opening message, opens a pending
// session and returns the message2 envelope encrypted to the client.
func (e *Engine) ProcessMessage1(ctx context.Context, env codec.Envelope) (codec.Envelope, error) {
	m1, err := codec.DecodeMessage1(env, e.resolver.ServerEntity())
	if err != nil {
		return codec.Envelope{}, err
	}

	clientKey, err := e.resolver.Resolve(m1.Identity)
	if err != nil {
		log.Printf("message1 rejected: %v", err)
		return codec.Envelope{}, err
	}

	var sess domain.Session
	for attempt := 0; ; attempt++ {
		ns, err := crypto.NewNonce()
		if err != nil {
			return codec.Envelope{}, err
		}
		sess, err = e.sessions.Open(m1.Identity, m1.NonceClient, ns)
		if err == nil {
			break
		}
		// Only a collision on our own freshly drawn server nonce is
		// worth another draw; a replayed client nonce never recovers.
		if !errors.Is(err, domain.ErrServerNonceCollision) || attempt+1 >= maxOpenAttempts {
			log.Printf("message1 rejected for %s: %v", m1.Identity, err)
			return codec.Envelope{}, err
		}
	}

	return codec.EncodeMessage2(clientKey, codec.Message2{
		NonceClient: sess.NonceClient,
		NonceServer: sess.NonceServer,
	})
}

// ProcessMessage3 validates the closing message against the stored
// session, consumes it atomically and releases the secret. A
// retransmitted message3 for a finished session fails with
// ErrAlreadyConsumed or ErrAlreadyReleased, never a second secret.
func (e *Engine) ProcessMessage3(ctx context.Context, env codec.Envelope) (domain.IssueResult, error) {
	m3, err := codec.DecodeMessage3(env, e.resolver.ServerEntity())
	if err != nil {
		return domain.IssueResult{}, err
	}

	sess, err := e.sessions.LookupByServerNonce(m3.NonceServer)
	if err != nil {
		return domain.IssueResult{}, err
	}

	secret, ticket, err := e.sessions.Consume(sess.ID, m3.NonceServer)
	if err != nil {
		if errors.Is(err, domain.ErrNonceMismatch) {
			log.Printf("message3 nonce mismatch for session %s", sess.ID)
		}
		return domain.IssueResult{}, err
	}

	handle, err := e.gate.Release(ctx, ticket, sess.Identity, secret)
	if err != nil {
		return domain.IssueResult{}, err
	}
	return domain.IssueResult{Handle: handle, Identity: sess.Identity}, nil
}
