// Package crypto exposes the primitives used by age-chat.
//
// Contents
//
//   - age X25519 identity generation (GenerateIdentity)
//   - Text-path encryption with ASCII armor (Encrypt, Decrypt)
//   - Binary-path encryption for file payloads (EncryptBytes, DecryptBytes)
//   - Symmetric BIP-39 fingerprints over two public keys (Fingerprint)
//
// # Notes
//
// Keys are the canonical age string encodings. A public key is also the
// transport address of its owner, so the same string is used for dialing,
// for encryption and for the fingerprint.
package crypto
