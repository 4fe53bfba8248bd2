package commands

import (
	"github.com/spf13/cobra"
)

var (
	serverURL     string
	identityName  string
	serverKeyPath string
	clientKeyPath string
	passphrase    string
)

func Execute() error {
	root := &cobra.Command{
		Use:          "rmap",
		Short:        "RMAP handshake client",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:5000", "server base URL")
	root.PersistentFlags().StringVar(&identityName, "identity", "", "our identity name (public key file stem on the server)")
	root.PersistentFlags().StringVar(&serverKeyPath, "server-pub", "pub.asc", "server public key file")
	root.PersistentFlags().StringVar(&clientKeyPath, "key", "priv.asc", "our private key file")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase for our private key")

	root.AddCommand(handshakeCmd(), fetchCmd(), fingerprintCmd(), keygenCmd())
	return root.Execute()
}
