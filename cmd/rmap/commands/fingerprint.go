package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rmap/internal/crypto"
)

// fingerprintCmd prints the fingerprints of the configured keys so peers
// can verify them out of band.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show fingerprints of the configured keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverKey, err := crypto.LoadArmoredKeyFile(serverKeyPath)
			if err != nil {
				return fmt.Errorf("loading server public key: %w", err)
			}
			clientKey, err := crypto.LoadArmoredKeyFile(clientKeyPath)
			if err != nil {
				return fmt.Errorf("loading our key: %w", err)
			}
			fmt.Printf("Server: %s\nOurs:   %s\n",
				crypto.Fingerprint(serverKey), crypto.Fingerprint(clientKey))
			return nil
		},
	}
}
