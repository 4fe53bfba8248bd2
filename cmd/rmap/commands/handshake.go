package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rmap/internal/crypto"
	"rmap/internal/handshake"
	"rmap/internal/transport"
)

// handshakeCmd runs the full three-message exchange and prints the issued
// handle and link.
func handshakeCmd() *cobra.Command {
	var (
		download bool
		outFile  string
	)

	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Run the three-message handshake and obtain a link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if identityName == "" {
				return fmt.Errorf("identity required (--identity)")
			}

			serverKey, err := crypto.LoadArmoredKeyFile(serverKeyPath)
			if err != nil {
				return fmt.Errorf("loading server public key: %w", err)
			}
			clientKey, err := crypto.LoadArmoredKeyFile(clientKeyPath)
			if err != nil {
				return fmt.Errorf("loading our key: %w", err)
			}
			if err := crypto.UnlockEntity(clientKey, passphrase); err != nil {
				return fmt.Errorf("unlocking our key: %w", err)
			}

			init := handshake.NewInitiator(identityName, serverKey, clientKey)
			client := transport.NewClient(serverURL)
			ctx := cmd.Context()

			env1, err := init.BuildMessage1()
			if err != nil {
				return err
			}
			env2, err := client.Initiate(ctx, env1)
			if err != nil {
				return fmt.Errorf("message1: %w", err)
			}
			if err := init.HandleMessage2(env2); err != nil {
				return fmt.Errorf("message2: %w", err)
			}
			env3, err := init.BuildMessage3()
			if err != nil {
				return err
			}
			res, err := client.GetLink(ctx, env3)
			if err != nil {
				return fmt.Errorf("message3: %w", err)
			}

			color.Green("Handshake complete.")
			fmt.Printf("Identity: %s\nHandle:   %s\nLink:     %s\n",
				res.Identity, res.Handle, init.Link().Hex())

			if !download {
				return nil
			}
			artifact, err := client.FetchVersion(ctx, res.Handle)
			if err != nil {
				return fmt.Errorf("fetching artifact: %w", err)
			}
			if err := os.WriteFile(outFile, artifact, 0o600); err != nil {
				return err
			}
			color.Green("Saved %s (%d bytes)", outFile, len(artifact))
			return nil
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "also download the personalized artifact")
	cmd.Flags().StringVar(&outFile, "out", "artifact.bin", "output file for --download")
	return cmd
}
