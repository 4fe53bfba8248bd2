package handshake

import (
	"errors"

	"github.com/ProtonMail/go-crypto/openpgp"

	"rmap/internal/codec"
	"rmap/internal/crypto"
	"rmap/internal/domain"
)

// Initiator drives the client side of the handshake. It is single-use:
// one Initiator runs one session.
type Initiator struct {
	identity  string
	serverKey *openpgp.Entity // server public key
	clientKey *openpgp.Entity // our keypair, unlocked

	nonceClient uint64
	nonceServer uint64
	started     bool
	agreed      bool
}

// NewInitiator prepares a handshake run for the named identity.
func NewInitiator(identity string, serverKey, clientKey *openpgp.Entity) *Initiator {
	return &Initiator{identity: identity, serverKey: serverKey, clientKey: clientKey}
}

// BuildMessage1 samples a fresh client nonce and seals the opening message
// to the server.
func (i *Initiator) BuildMessage1() (codec.Envelope, error) {
	nc, err := crypto.NewNonce()
	if err != nil {
		return codec.Envelope{}, err
	}
	i.nonceClient = nc
	i.started = true
	return codec.EncodeMessage1(i.serverKey, codec.Message1{
		Identity:    i.identity,
		NonceClient: nc,
	})
}

// HandleMessage2 opens the server's reply and checks that it echoes our
// nonce, binding it to this run rather than a replayed one.
func (i *Initiator) HandleMessage2(env codec.Envelope) error {
	if !i.started {
		return errors.New("handshake: message2 before message1")
	}
	m2, err := codec.DecodeMessage2(env, i.clientKey)
	if err != nil {
		return err
	}
	if m2.NonceClient != i.nonceClient {
		return domain.ErrNonceMismatch
	}
	i.nonceServer = m2.NonceServer
	i.agreed = true
	return nil
}

// BuildMessage3 seals the closing message carrying the server nonce.
func (i *Initiator) BuildMessage3() (codec.Envelope, error) {
	if !i.agreed {
		return codec.Envelope{}, errors.New("handshake: message3 before message2")
	}
	return codec.EncodeMessage3(i.serverKey, codec.Message3{
		NonceServer: i.nonceServer,
	})
}

// Link computes the session secret on the client side. Valid only after a
// successful HandleMessage2; both parties arrive at the same value.
func (i *Initiator) Link() domain.Secret {
	return crypto.DeriveLink(i.identity, i.nonceClient, i.nonceServer)
}
