package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rmap/internal/crypto"
)

// keygenCmd generates a fresh keypair and writes the armored halves to
// <name>.asc and <name>_priv.asc. The public file is what the server
// operator drops into the trusted-keys directory.
func keygenCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "keygen <name>",
		Short: "Generate an armored keypair for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			entity, err := crypto.GenerateEntity(name)
			if err != nil {
				return err
			}

			pub, err := crypto.ArmorPublic(entity)
			if err != nil {
				return err
			}
			priv, err := crypto.ArmorPrivate(entity)
			if err != nil {
				return err
			}

			pubPath := filepath.Join(outDir, name+".asc")
			privPath := filepath.Join(outDir, name+"_priv.asc")
			if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(privPath, priv, 0o600); err != nil {
				return err
			}

			color.Green("Keypair created.")
			fmt.Printf("Fingerprint: %s\nPublic:      %s\nPrivate:     %s\n",
				crypto.Fingerprint(entity), pubPath, privPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}
