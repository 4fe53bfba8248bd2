// Package crypto wraps the OpenPGP primitives and derivations used by RMAP.
//
// Contents
//
//   - Armored key parsing, loading and passphrase unlock (ReadArmoredEntity,
//     LoadArmoredKeyFile, UnlockEntity)
//   - Public-key encryption and decryption of protocol payloads
//     (EncryptTo, Decrypt)
//   - Fresh 64-bit nonces (NewNonce) and the deterministic secret and
//     session-id derivations (DeriveLink, SessionID)
//   - Key generation and armored export for provisioning and tests
//     (GenerateEntity, ArmorPublic, ArmorPrivate)
//
// All key material is treated as immutable after load. Intermediate
// plaintext buffers are wiped best-effort via internal/util/memzero.
package crypto
