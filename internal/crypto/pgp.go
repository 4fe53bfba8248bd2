package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"rmap/internal/domain"
)

const messageType = "PGP MESSAGE"

// ReadArmoredEntity parses a single ASCII-armored OpenPGP key.
func ReadArmoredEntity(r io.Reader) (*openpgp.Entity, error) {
	ring, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyLoad, err)
	}
	if len(ring) == 0 {
		return nil, fmt.Errorf("%w: empty key ring", domain.ErrKeyLoad)
	}
	return ring[0], nil
}

// LoadArmoredKeyFile reads an armored key from disk.
func LoadArmoredKeyFile(path string) (*openpgp.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyLoad, err)
	}
	defer f.Close()
	return ReadArmoredEntity(f)
}

// UnlockEntity decrypts the entity's private key material with passphrase.
// It is a no-op for keys stored unprotected.
func UnlockEntity(e *openpgp.Entity, passphrase string) error {
	if e.PrivateKey == nil {
		return fmt.Errorf("%w: no private key material", domain.ErrKeyLoad)
	}
	if e.PrivateKey.Encrypted {
		if err := e.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrKeyLoad, err)
		}
	}
	for i := range e.Subkeys {
		sk := &e.Subkeys[i]
		if sk.PrivateKey != nil && sk.PrivateKey.Encrypted {
			if err := sk.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrKeyLoad, err)
			}
		}
	}
	return nil
}

// EncryptTo encrypts plaintext to the recipient's public key and returns
// the ASCII-armored ciphertext.
func EncryptTo(to *openpgp.Entity, plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return nil, err
	}
	pw, err := openpgp.Encrypt(aw, []*openpgp.Entity{to}, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if _, err := pw.Write(plaintext); err != nil {
		return nil, err
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}
	if err := aw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decrypt opens an armored ciphertext with the recipient's unlocked
// private key. Malformed armor, a wrong key or corrupted ciphertext all
// surface as ErrDecrypt.
func Decrypt(recipient *openpgp.Entity, armored []byte) ([]byte, error) {
	block, err := armor.Decode(bytes.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("%w: bad armor", domain.ErrDecrypt)
	}
	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{recipient}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecrypt, err)
	}
	out, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecrypt, err)
	}
	return out, nil
}

// Fingerprint returns the hex fingerprint of the entity's primary key.
func Fingerprint(e *openpgp.Entity) string {
	return hex.EncodeToString(e.PrimaryKey.Fingerprint)
}

// GenerateEntity creates a fresh Ed25519/X25519 key pair named after the
// identity. Used for provisioning and tests.
func GenerateEntity(name string) (*openpgp.Entity, error) {
	cfg := &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA}
	return openpgp.NewEntity(name, "", "", cfg)
}

// ArmorPublic serialises the public half of an entity as ASCII armor.
func ArmorPublic(e *openpgp.Entity) ([]byte, error) {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := e.Serialize(w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArmorPrivate serialises the full keypair as ASCII armor.
func ArmorPrivate(e *openpgp.Entity) ([]byte, error) {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := e.SerializePrivate(w, nil); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
