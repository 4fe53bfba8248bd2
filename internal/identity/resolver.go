package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"

	"rmap/internal/crypto"
	"rmap/internal/domain"
)

const keyFileExt = ".asc"

// Resolver maps identity names to trusted public keys. The identity name
// is the key file's stem: trusted-keys/Group_07.asc holds Group_07's key.
type Resolver struct {
	trusted map[string]*openpgp.Entity
	server  *openpgp.Entity
}

// Load reads every *.asc public key in dir plus the server keypair at
// serverKeyPath, unlocking it with passphrase if protected. Failure here
// is the only process-fatal condition in the engine.
func Load(dir, serverKeyPath, passphrase string) (*Resolver, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyLoad, err)
	}

	trusted := make(map[string]*openpgp.Entity, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), keyFileExt) {
			continue
		}
		name := strings.TrimSuffix(ent.Name(), keyFileExt)
		e, err := crypto.LoadArmoredKeyFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return nil, fmt.Errorf("trusted key %q: %w", name, err)
		}
		trusted[name] = e
	}

	server, err := crypto.LoadArmoredKeyFile(serverKeyPath)
	if err != nil {
		return nil, fmt.Errorf("server keypair: %w", err)
	}
	if err := crypto.UnlockEntity(server, passphrase); err != nil {
		return nil, fmt.Errorf("server keypair: %w", err)
	}

	return &Resolver{trusted: trusted, server: server}, nil
}

// New builds a resolver from in-memory entities. The server entity must
// carry unlocked private key material.
func New(server *openpgp.Entity, trusted map[string]*openpgp.Entity) *Resolver {
	m := make(map[string]*openpgp.Entity, len(trusted))
	for name, e := range trusted {
		m[name] = e
	}
	return &Resolver{trusted: m, server: server}
}

// Resolve returns the trusted public key for name.
func (r *Resolver) Resolve(name string) (*openpgp.Entity, error) {
	e, ok := r.trusted[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownIdentity)
	}
	return e, nil
}

// ServerEntity returns the server's own keypair.
func (r *Resolver) ServerEntity() *openpgp.Entity { return r.server }

// Identities lists the trusted identity names in sorted order.
func (r *Resolver) Identities() []string {
	names := make([]string, 0, len(r.trusted))
	for name := range r.trusted {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
