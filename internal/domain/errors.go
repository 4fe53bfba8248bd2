package domain

import (
	"errors"
	"fmt"
)

// Protocol errors. All are local, non-retriable conditions reported to the
// transport; none of them is fatal to the process.
var (
	ErrUnknownIdentity = errors.New("rmap: unknown identity")
	ErrKeyLoad         = errors.New("rmap: key load failed")
	ErrTypeMismatch    = errors.New("rmap: message type mismatch")
	ErrDecrypt         = errors.New("rmap: decrypt failed")
	ErrDuplicateNonce  = errors.New("rmap: nonce already in use")
	ErrNonceMismatch   = errors.New("rmap: server nonce mismatch")
	ErrAlreadyConsumed = errors.New("rmap: session already consumed")
	ErrAlreadyReleased = errors.New("rmap: secret already released")
	ErrExpired         = errors.New("rmap: session expired")
	ErrNotFound        = errors.New("rmap: no matching session")
)

// ErrServerNonceCollision refines ErrDuplicateNonce for the one case that
// is worth a retry: SessionStore.Open drew a server nonce already held by
// an outstanding session. It matches ErrDuplicateNonce under errors.Is.
var ErrServerNonceCollision = fmt.Errorf("server nonce collision: %w", ErrDuplicateNonce)
