package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"

	"rmap/internal/domain"
	"rmap/internal/util/memzero"
)

// NewNonce returns a fresh 64-bit random nonce.
func NewNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// SessionID deterministically names the session opened by
// (identity, nonceClient).
func SessionID(identity string, nonceClient uint64) domain.SessionID {
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write([]byte{0})
	var nc [8]byte
	binary.BigEndian.PutUint64(nc[:], nonceClient)
	h.Write(nc[:])
	sum := h.Sum(nil)
	return domain.SessionID(hex.EncodeToString(sum[:16]))
}

// DeriveLink computes the 128-bit session secret from the agreed handshake
// parameters using HKDF-SHA256. Both sides of a completed run arrive at
// the same value; nobody without both nonces can.
func DeriveLink(identity string, nonceClient, nonceServer uint64) domain.Secret {
	var ikm [16]byte
	binary.BigEndian.PutUint64(ikm[:8], nonceClient)
	binary.BigEndian.PutUint64(ikm[8:], nonceServer)

	r := hkdf.New(sha256.New, ikm[:], nil, []byte("rmap-link:"+identity))
	var s domain.Secret
	// The read cannot fail for an output this short.
	_, _ = io.ReadFull(r, s[:])
	memzero.Zero(ikm[:])
	return s
}
