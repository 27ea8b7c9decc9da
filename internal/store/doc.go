// Package store provides file-based persistence for age-chat's identity slot.
//
// The slot is a single file ("age.keypair") under the configured home
// directory holding the JSON key pair. When a passphrase is configured the
// JSON is sealed with an scrypt-derived XChaCha20-Poly1305 key before it
// touches the disk, with the slot name authenticated alongside it. Writes go through a temp file and an atomic rename.
// All methods are concurrency-safe via internal locking.
package store
