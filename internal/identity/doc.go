// Package identity resolves claimed identity names to trusted public keys
// and holds the server's own keypair.
//
// All key material is loaded once at startup and never mutated, so the
// resolver is safe for concurrent reads from any number of handshake
// workers without locking.
package identity
