// Package envelope encrypts and decrypts the payloads exchanged over a link
// and defines their wire shape.
//
// Text messages use the provider's armored text path; files use the binary
// path and carry their metadata beside the ciphertext, in clear. Every
// function is a pure transform.
//
// # Errors
//
// ErrEncryption, ErrDecryption and ErrProtocol classify failures. They are
// always wrapped, so callers match with errors.Is.
package envelope
