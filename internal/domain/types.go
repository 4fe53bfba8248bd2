package domain

import (
	"encoding/hex"
	"time"
)

// SessionID deterministically names one handshake session. It is derived
// from (identity, client nonce) so a given client nonce maps to exactly
// one session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// Handle is the opaque retrieval token returned to the transport after a
// secret has been released. Unique per session.
type Handle string

// String returns the string form of the handle.
func (h Handle) String() string { return string(h) }

// Secret is the 128-bit session-bound link value derived at consume time.
type Secret [16]byte

// Hex returns the lowercase hex form used at the transport boundary.
func (s Secret) Hex() string { return hex.EncodeToString(s[:]) }

// Phase is the lifecycle state of a stored session.
type Phase int

const (
	// PhaseAwaitingMessage3 marks a session opened by message1 that has
	// not yet seen a valid message3.
	PhaseAwaitingMessage3 Phase = iota

	// PhaseConsumed marks a session whose secret has been derived. Terminal.
	PhaseConsumed

	// PhaseExpired marks a session evicted by the timeout sweep or after
	// too many mismatched message3 attempts. Terminal.
	PhaseExpired
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingMessage3:
		return "awaiting-message3"
	case PhaseConsumed:
		return "consumed"
	case PhaseExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session is the server-side record of one in-flight handshake.
type Session struct {
	ID          SessionID
	Identity    string
	NonceClient uint64
	NonceServer uint64
	Phase       Phase
	CreatedAt   time.Time
}

// Ticket is the one-shot proof of a fresh consume transition. It is minted
// by the session store exactly once per session and required by the
// issuance gate before a secret leaves the engine.
type Ticket struct {
	SessionID SessionID
	Token     string
}

// IssueResult is what a completed message3 yields to the transport.
type IssueResult struct {
	Handle   Handle
	Identity string
}
