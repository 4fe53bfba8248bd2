package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp"

	"rmap/internal/crypto"
	"rmap/internal/domain"
	"rmap/internal/util/memzero"
)

// MessageType tags a protocol envelope.
type MessageType int

const (
	TypeMessage1 MessageType = 1
	TypeMessage2 MessageType = 2
	TypeMessage3 MessageType = 3
)

// String returns the tag name.
func (t MessageType) String() string {
	switch t {
	case TypeMessage1:
		return "message1"
	case TypeMessage2:
		return "message2"
	case TypeMessage3:
		return "message3"
	default:
		return fmt.Sprintf("message?%d", int(t))
	}
}

// Envelope is the tagged, encrypted container for one protocol message.
// Payload is the base64 encoding of the ASCII-armored ciphertext, matching
// the wire shape the transport carries.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload string      `json:"payload"`
}

// Message1 is sent Client to Server, encrypted under the Server's public key.
type Message1 struct {
	Msg         int    `json:"msg"`
	Identity    string `json:"identity"`
	NonceClient uint64 `json:"nonceClient"`
}

// Message2 is sent Server to Client, encrypted under the Client's public
// key. It echoes the client nonce so the client can bind the reply to its
// own run.
type Message2 struct {
	Msg         int    `json:"msg"`
	NonceClient uint64 `json:"nonceClient"`
	NonceServer uint64 `json:"nonceServer"`
}

// Message3 is sent Client to Server, encrypted under the Server's public
// key. The server recovers identity and client nonce from the pending
// session indexed by the server nonce.
type Message3 struct {
	Msg         int    `json:"msg"`
	NonceServer uint64 `json:"nonceServer"`
}

// EncodeMessage1 seals m under the server's public key.
func EncodeMessage1(serverKey *openpgp.Entity, m Message1) (Envelope, error) {
	m.Msg = int(TypeMessage1)
	return seal(TypeMessage1, serverKey, m)
}

// EncodeMessage2 seals m under the client's public key.
func EncodeMessage2(clientKey *openpgp.Entity, m Message2) (Envelope, error) {
	m.Msg = int(TypeMessage2)
	return seal(TypeMessage2, clientKey, m)
}

// EncodeMessage3 seals m under the server's public key.
func EncodeMessage3(serverKey *openpgp.Entity, m Message3) (Envelope, error) {
	m.Msg = int(TypeMessage3)
	return seal(TypeMessage3, serverKey, m)
}

// DecodeMessage1 opens env with the server's private key.
func DecodeMessage1(env Envelope, serverKey *openpgp.Entity) (Message1, error) {
	var m Message1
	if err := open(env, TypeMessage1, serverKey, &m); err != nil {
		return Message1{}, err
	}
	if m.Msg != int(TypeMessage1) {
		return Message1{}, embeddedMismatch(TypeMessage1, m.Msg)
	}
	return m, nil
}

// DecodeMessage2 opens env with the client's private key.
func DecodeMessage2(env Envelope, clientKey *openpgp.Entity) (Message2, error) {
	var m Message2
	if err := open(env, TypeMessage2, clientKey, &m); err != nil {
		return Message2{}, err
	}
	if m.Msg != int(TypeMessage2) {
		return Message2{}, embeddedMismatch(TypeMessage2, m.Msg)
	}
	return m, nil
}

// DecodeMessage3 opens env with the server's private key.
func DecodeMessage3(env Envelope, serverKey *openpgp.Entity) (Message3, error) {
	var m Message3
	if err := open(env, TypeMessage3, serverKey, &m); err != nil {
		return Message3{}, err
	}
	if m.Msg != int(TypeMessage3) {
		return Message3{}, embeddedMismatch(TypeMessage3, m.Msg)
	}
	return m, nil
}

func seal(t MessageType, to *openpgp.Entity, v any) (Envelope, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	armored, err := crypto.EncryptTo(to, raw)
	memzero.Zero(raw)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:    t,
		Payload: base64.StdEncoding.EncodeToString(armored),
	}, nil
}

// open rejects on envelope tag mismatch before touching the ciphertext.
func open(env Envelope, want MessageType, recipient *openpgp.Entity, v any) error {
	if env.Type != want {
		return fmt.Errorf("%w: envelope tagged %s, want %s", domain.ErrTypeMismatch, env.Type, want)
	}
	armored, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return fmt.Errorf("%w: bad payload encoding", domain.ErrDecrypt)
	}
	raw, err := crypto.Decrypt(recipient, armored)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: bad payload", domain.ErrDecrypt)
	}
	return nil
}

func embeddedMismatch(want MessageType, got int) error {
	return fmt.Errorf("%w: payload carries msg=%d, want %s", domain.ErrTypeMismatch, got, want)
}
