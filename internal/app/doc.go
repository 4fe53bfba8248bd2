// Package app wires the server's dependency graph.
//
// It builds the identity resolver, session store, issuance gate, handshake
// engine and HTTP router from Config, exposing them via the Wire struct
// for the daemon to run.
package app
