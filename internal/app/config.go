package app

import "time"

// Config holds runtime wiring options for the server daemon.
type Config struct {
	KeysDir       string        // directory of trusted *.asc public keys
	ServerKey     string        // path to the server's armored keypair
	Passphrase    string        // optional passphrase for the server keypair
	Addr          string        // listen address, e.g. :5000
	SessionTTL    time.Duration // how long a pending session waits for message3
	SweepInterval time.Duration // how often the expiry sweep runs
}
