package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"rmap/internal/crypto"
	"rmap/internal/domain"
)

const (
	// DefaultMaxAge is how long a pending session waits for message3.
	DefaultMaxAge = 10 * time.Minute

	// maxNonceMismatches bounds message3 retries with a wrong server
	// nonce before the session is forced to expire.
	maxNonceMismatches = 3

	// tombstoneRetention is how long finished sessions stay queryable
	// (as multiples of the max age) before eviction.
	tombstoneRetention = 2
)

type entry struct {
	sess       domain.Session
	mismatches int
	finishedAt time.Time // set when the phase turns terminal
}

// Store is the in-memory session table. It is the only shared mutable
// state in the engine.
type Store struct {
	mu            sync.Mutex
	maxAge        time.Duration
	byID          map[domain.SessionID]*entry
	byServerNonce map[uint64]domain.SessionID
	clientNonces  map[uint64]domain.SessionID
}

// NewStore returns a Store whose pending sessions expire after maxAge.
// A non-positive maxAge selects DefaultMaxAge.
func NewStore(maxAge time.Duration) *Store {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Store{
		maxAge:        maxAge,
		byID:          make(map[domain.SessionID]*entry),
		byServerNonce: make(map[uint64]domain.SessionID),
		clientNonces:  make(map[uint64]domain.SessionID),
	}
}

// Open creates a pending session for (identity, nonceClient). The client
// nonce must never have been seen before, in any phase, and nonceServer
// must not collide with another outstanding session.
func (s *Store) Open(identity string, nonceClient, nonceServer uint64) (domain.Session, error) {
	id := crypto.SessionID(identity, nonceClient)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, used := s.clientNonces[nonceClient]; used {
		return domain.Session{}, domain.ErrDuplicateNonce
	}
	if _, exists := s.byID[id]; exists {
		return domain.Session{}, domain.ErrDuplicateNonce
	}
	if prior, ok := s.byServerNonce[nonceServer]; ok {
		if e := s.byID[prior]; e != nil && e.sess.Phase == domain.PhaseAwaitingMessage3 {
			return domain.Session{}, domain.ErrServerNonceCollision
		}
	}

	sess := domain.Session{
		ID:          id,
		Identity:    identity,
		NonceClient: nonceClient,
		NonceServer: nonceServer,
		Phase:       domain.PhaseAwaitingMessage3,
		CreatedAt:   time.Now(),
	}
	s.byID[id] = &entry{sess: sess}
	s.byServerNonce[nonceServer] = id
	s.clientNonces[nonceClient] = id
	return sess, nil
}

// LookupByServerNonce resolves the session that recorded nonceServer at
// open time.
func (s *Store) LookupByServerNonce(nonceServer uint64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byServerNonce[nonceServer]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	e, ok := s.byID[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return e.sess, nil
}

// Consume is the single atomic check-and-transition of the protocol: it
// verifies the supplied server nonce against the one recorded at open
// time, moves the session to PhaseConsumed, derives the secret and mints
// the one-shot issue ticket. Exactly one call per session ever succeeds.
func (s *Store) Consume(id domain.SessionID, nonceServer uint64) (domain.Secret, domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return domain.Secret{}, domain.Ticket{}, domain.ErrNotFound
	}
	switch e.sess.Phase {
	case domain.PhaseConsumed:
		return domain.Secret{}, domain.Ticket{}, domain.ErrAlreadyConsumed
	case domain.PhaseExpired:
		return domain.Secret{}, domain.Ticket{}, domain.ErrExpired
	}

	if e.sess.NonceServer != nonceServer {
		// The session stays pending so a legitimate client can retry,
		// but not indefinitely.
		e.mismatches++
		if e.mismatches >= maxNonceMismatches {
			e.sess.Phase = domain.PhaseExpired
			e.finishedAt = time.Now()
		}
		return domain.Secret{}, domain.Ticket{}, domain.ErrNonceMismatch
	}

	e.sess.Phase = domain.PhaseConsumed
	e.finishedAt = time.Now()

	secret := crypto.DeriveLink(e.sess.Identity, e.sess.NonceClient, e.sess.NonceServer)
	token, err := newToken()
	if err != nil {
		// Roll back so the session is not burnt by a local RNG failure.
		e.sess.Phase = domain.PhaseAwaitingMessage3
		e.finishedAt = time.Time{}
		return domain.Secret{}, domain.Ticket{}, err
	}
	return secret, domain.Ticket{SessionID: id, Token: token}, nil
}

// Sweep expires pending sessions older than the max age and evicts
// terminal ones whose retention window has passed. It returns the number
// of sessions expired on this pass. Run it periodically, never inline on
// the message path.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, e := range s.byID {
		switch e.sess.Phase {
		case domain.PhaseAwaitingMessage3:
			if now.Sub(e.sess.CreatedAt) > s.maxAge {
				e.sess.Phase = domain.PhaseExpired
				e.finishedAt = now
				expired++
			}
		default:
			if now.Sub(e.finishedAt) > time.Duration(tombstoneRetention)*s.maxAge {
				s.evictLocked(id, e)
			}
		}
	}
	return expired
}

// Len reports the number of tracked sessions, tombstones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// evictLocked removes the entry and its index slots. A nonce index slot
// may have been re-pointed at a newer session once this entry turned
// terminal, so each slot is dropped only while it still names this entry.
func (s *Store) evictLocked(id domain.SessionID, e *entry) {
	delete(s.byID, id)
	if s.byServerNonce[e.sess.NonceServer] == id {
		delete(s.byServerNonce, e.sess.NonceServer)
	}
	if s.clientNonces[e.sess.NonceClient] == id {
		delete(s.clientNonces, e.sess.NonceClient)
	}
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Compile-time assertion that Store implements domain.SessionStore.
var _ domain.SessionStore = (*Store)(nil)
