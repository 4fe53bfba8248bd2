package app

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"rmap/internal/domain"
	"rmap/internal/handshake"
	"rmap/internal/identity"
	"rmap/internal/issuance"
	"rmap/internal/session"
	"rmap/internal/transport"
)

// Wire bundles the server's collaborators.
type Wire struct {
	Resolver     *identity.Resolver
	Sessions     *session.Store
	Gate         *issuance.Gate
	Personalizer domain.Personalizer
	Engine       *handshake.Engine
	Router       *gin.Engine
}

// NewWire constructs the dependency graph from cfg. Key material that
// fails to load aborts construction; nothing else here can fail.
func NewWire(cfg Config) (*Wire, error) {
	resolver, err := identity.Load(cfg.KeysDir, cfg.ServerKey, cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.SessionTTL)
	personalizer := issuance.NewStubPersonalizer()
	gate := issuance.NewGate(personalizer)
	engine := handshake.NewEngine(resolver, sessions, gate)
	router := transport.NewRouter(engine, personalizer)

	return &Wire{
		Resolver:     resolver,
		Sessions:     sessions,
		Gate:         gate,
		Personalizer: personalizer,
		Engine:       engine,
		Router:       router,
	}, nil
}

// StartSweeper runs the expiry sweep every interval until ctx is done.
func (w *Wire) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				if n := w.Sessions.Sweep(now); n > 0 {
					log.Printf("swept %d expired sessions (%d tracked)", n, w.Sessions.Len())
				}
			}
		}
	}()
}
