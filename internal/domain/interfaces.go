package domain

import (
	"context"
	"time"
)

// SessionStore tracks in-flight handshakes. Open and Consume are the only
// mutating operations and are linearizable per session id; a session is
// consumed at most once.
type SessionStore interface {
	// Open creates a pending session for (identity, nonceClient). It fails
	// with ErrDuplicateNonce if the client nonce was ever seen before, or
	// if nonceServer collides with another outstanding session.
	Open(identity string, nonceClient, nonceServer uint64) (Session, error)

	// LookupByServerNonce resolves a pending or finished session by the
	// server nonce recorded at open time.
	LookupByServerNonce(nonceServer uint64) (Session, error)

	// Consume atomically transitions the session to PhaseConsumed, derives
	// the secret and mints the one-shot issue ticket. Exactly one call per
	// session ever succeeds.
	Consume(id SessionID, nonceServer uint64) (Secret, Ticket, error)

	// Sweep expires pending sessions older than the store's max age and
	// eventually evicts finished ones. Returns the number of sessions it
	// expired.
	Sweep(now time.Time) int
}

// Personalizer is the external personalization collaborator. Given the
// resolved identity and the issued handle it produces a retrievable
// artifact and registers the handle for later retrieval.
type Personalizer interface {
	Personalize(ctx context.Context, identity string, handle Handle, secret Secret) error
	Fetch(ctx context.Context, handle Handle) ([]byte, error)
}
