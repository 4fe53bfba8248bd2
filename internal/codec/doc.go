// Package codec serialises the three typed RMAP payloads and binds each to
// an explicit message-type tag.
//
// The tag appears twice: on the envelope, checked before any decryption is
// attempted, and as the msg field inside the encrypted payload, checked
// after decryption. A captured ciphertext of one message can therefore not
// be relayed in place of another, even though all three are opaque
// ciphertexts of similar shape.
package codec
