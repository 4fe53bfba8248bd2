package session_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"rmap/internal/domain"
	"rmap/internal/session"
)

func TestOpenLookupConsume(t *testing.T) {
	s := session.NewStore(time.Minute)

	sess, err := s.Open("Group_07", 0x1111, 0x2222)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sess.Phase != domain.PhaseAwaitingMessage3 {
		t.Fatalf("new session phase %v", sess.Phase)
	}

	got, err := s.LookupByServerNonce(0x2222)
	if err != nil {
		t.Fatalf("LookupByServerNonce: %v", err)
	}
	if got.ID != sess.ID || got.Identity != "Group_07" {
		t.Fatalf("lookup returned %+v", got)
	}

	secret, ticket, err := s.Consume(sess.ID, 0x2222)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if ticket.SessionID != sess.ID || ticket.Token == "" {
		t.Fatalf("bad ticket %+v", ticket)
	}
	if secret == (domain.Secret{}) {
		t.Fatal("consume returned a zero secret")
	}
}

func TestDuplicateClientNonce(t *testing.T) {
	s := session.NewStore(time.Minute)

	if _, err := s.Open("Group_07", 1, 100); err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Same nc, same identity.
	if _, err := s.Open("Group_07", 1, 101); !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("want ErrDuplicateNonce, got %v", err)
	}
	// Same nc, different identity: still rejected, no nonce value may
	// name two sessions.
	if _, err := s.Open("Group_08", 1, 102); !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("want ErrDuplicateNonce across identities, got %v", err)
	}

	// Consuming the session does not free the nonce.
	sess, err := s.LookupByServerNonce(100)
	if err != nil {
		t.Fatalf("LookupByServerNonce: %v", err)
	}
	if _, _, err := s.Consume(sess.ID, 100); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if _, err := s.Open("Group_07", 1, 103); !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("want ErrDuplicateNonce after consume, got %v", err)
	}
}

func TestServerNonceCollision(t *testing.T) {
	s := session.NewStore(time.Minute)

	if _, err := s.Open("Group_07", 1, 100); err != nil {
		t.Fatalf("Open: %v", err)
	}
	// ns already pending for another session: reported as a collision,
	// which still reads as a duplicate nonce to the transport.
	_, err := s.Open("Group_08", 2, 100)
	if !errors.Is(err, domain.ErrServerNonceCollision) {
		t.Fatalf("want ErrServerNonceCollision for pending ns collision, got %v", err)
	}
	if !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("collision should match ErrDuplicateNonce, got %v", err)
	}

	// A replayed client nonce is a plain duplicate, never a collision the
	// caller should retry.
	_, err = s.Open("Group_07", 1, 101)
	if !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("want ErrDuplicateNonce for replayed nc, got %v", err)
	}
	if errors.Is(err, domain.ErrServerNonceCollision) {
		t.Fatalf("replayed nc reported as retriable collision: %v", err)
	}
}

// A server nonce held only by a tombstone may be reissued to a new
// session; evicting the tombstone later must not unhook the new session
// from the nonce index.
func TestServerNonceReuseAcrossEviction(t *testing.T) {
	ttl := time.Minute
	s := session.NewStore(ttl)

	a, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open a: %v", err)
	}
	if _, _, err := s.Consume(a.ID, 100); err != nil {
		t.Fatalf("Consume a: %v", err)
	}

	// The ns now points at a terminal session, so a fresh open may take it.
	b, err := s.Open("Group_07", 2, 100)
	if err != nil {
		t.Fatalf("Open b reusing freed ns: %v", err)
	}

	// Past the retention window a's tombstone is evicted and b's pending
	// session turns expired.
	s.Sweep(time.Now().Add(3 * ttl))

	got, err := s.LookupByServerNonce(100)
	if err != nil {
		t.Fatalf("ns index lost the surviving session: %v", err)
	}
	if got.ID != b.ID {
		t.Fatalf("ns resolves to %s, want %s", got.ID, b.ID)
	}
	if _, _, err := s.Consume(b.ID, 100); !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("want ErrExpired for the swept session, got %v", err)
	}
}

func TestConsumeTwice(t *testing.T) {
	s := session.NewStore(time.Minute)

	sess, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first, _, err := s.Consume(sess.ID, 100)
	if err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	second, _, err := s.Consume(sess.ID, 100)
	if !errors.Is(err, domain.ErrAlreadyConsumed) {
		t.Fatalf("want ErrAlreadyConsumed, got %v", err)
	}
	if second != (domain.Secret{}) {
		t.Fatalf("replay leaked a secret: %s vs %s", second.Hex(), first.Hex())
	}
}

// Injective agreement under concurrency: of N racing message3 deliveries
// for one session, exactly one consume succeeds.
func TestConcurrentConsume(t *testing.T) {
	s := session.NewStore(time.Minute)

	sess, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		replays   int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.Consume(sess.ID, 100)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyConsumed):
				replays++
			default:
				t.Errorf("unexpected consume error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("want exactly 1 successful consume, got %d", successes)
	}
	if replays != workers-1 {
		t.Fatalf("want %d replays, got %d", workers-1, replays)
	}
}

func TestNonceMismatchKeepsSessionThenExpires(t *testing.T) {
	s := session.NewStore(time.Minute)

	sess, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// First two mismatches leave the session pending for a legitimate retry.
	for i := 0; i < 2; i++ {
		if _, _, err := s.Consume(sess.ID, 999); !errors.Is(err, domain.ErrNonceMismatch) {
			t.Fatalf("want ErrNonceMismatch, got %v", err)
		}
	}
	if _, _, err := s.Consume(sess.ID, 100); err != nil {
		t.Fatalf("retry with correct nonce should still succeed: %v", err)
	}
}

func TestNonceMismatchRetryBound(t *testing.T) {
	s := session.NewStore(time.Minute)

	sess, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := s.Consume(sess.ID, 999); !errors.Is(err, domain.ErrNonceMismatch) {
			t.Fatalf("mismatch %d: want ErrNonceMismatch, got %v", i, err)
		}
	}
	// Retry budget exhausted: even the correct nonce is now refused.
	if _, _, err := s.Consume(sess.ID, 100); !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("want ErrExpired after retry bound, got %v", err)
	}
}

func TestSweepExpiresPending(t *testing.T) {
	ttl := time.Minute
	s := session.NewStore(ttl)

	sess, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if n := s.Sweep(time.Now()); n != 0 {
		t.Fatalf("premature sweep expired %d sessions", n)
	}
	if n := s.Sweep(time.Now().Add(2 * ttl)); n != 1 {
		t.Fatalf("sweep expired %d sessions, want 1", n)
	}

	// A late message3 fails Expired, not NotFound.
	if _, _, err := s.Consume(sess.ID, 100); !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("want ErrExpired after sweep, got %v", err)
	}
	if _, err := s.LookupByServerNonce(100); err != nil {
		t.Fatalf("expired tombstone should stay queryable: %v", err)
	}
}

func TestSweepEvictsOldTombstones(t *testing.T) {
	ttl := time.Minute
	s := session.NewStore(ttl)

	if _, err := s.Open("Group_07", 1, 100); err != nil {
		t.Fatalf("Open: %v", err)
	}

	expireAt := time.Now().Add(2 * ttl)
	if n := s.Sweep(expireAt); n != 1 {
		t.Fatalf("sweep expired %d, want 1", n)
	}
	// Retention window from the moment of expiry.
	s.Sweep(expireAt.Add(3 * ttl))

	if _, err := s.LookupByServerNonce(100); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound after eviction, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("store still tracks %d sessions", s.Len())
	}
}

func TestSecretsDifferAcrossSessions(t *testing.T) {
	s := session.NewStore(time.Minute)

	a, err := s.Open("Group_07", 1, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, err := s.Open("Group_07", 2, 200)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sa, _, err := s.Consume(a.ID, 100)
	if err != nil {
		t.Fatalf("Consume a: %v", err)
	}
	sb, _, err := s.Consume(b.ID, 200)
	if err != nil {
		t.Fatalf("Consume b: %v", err)
	}
	if sa == sb {
		t.Fatal("independent sessions derived the same secret")
	}
}
