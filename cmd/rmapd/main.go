package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rmap/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := app.Config{}

	root := &cobra.Command{
		Use:          "rmapd",
		Short:        "RMAP handshake server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			w.StartSweeper(ctx, cfg.SweepInterval)

			srv := &http.Server{Addr: cfg.Addr, Handler: w.Router}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.Printf("rmapd listening on %s (%d trusted identities)",
				cfg.Addr, len(w.Resolver.Identities()))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	root.Flags().StringVar(&cfg.KeysDir, "keys", "keys", "directory of trusted public keys (*.asc)")
	root.Flags().StringVar(&cfg.ServerKey, "server-key", "server_priv.asc", "server keypair file")
	root.Flags().StringVarP(&cfg.Passphrase, "passphrase", "p", "", "passphrase for the server keypair")
	root.Flags().StringVar(&cfg.Addr, "addr", ":5000", "listen address")
	root.Flags().DurationVar(&cfg.SessionTTL, "session-ttl", 10*time.Minute, "pending session lifetime")
	root.Flags().DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "expiry sweep interval")

	return root.Execute()
}
