package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rmap/internal/domain"
	"rmap/internal/transport"
)

// fetchCmd downloads a previously issued artifact by its handle.
func fetchCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "fetch <handle>",
		Short: "Download the personalized artifact for a handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := transport.NewClient(serverURL)
			artifact, err := client.FetchVersion(cmd.Context(), domain.Handle(args[0]))
			if err != nil {
				return fmt.Errorf("fetching %q: %w", args[0], err)
			}
			if err := os.WriteFile(outFile, artifact, 0o600); err != nil {
				return err
			}
			color.Green("Saved %s (%d bytes)", outFile, len(artifact))
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "artifact.bin", "output file")
	return cmd
}
