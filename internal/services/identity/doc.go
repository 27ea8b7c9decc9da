// Package identity owns the local age key pair for the life of a process.
//
// Load returns the persisted identity, or generates a fresh one when the slot
// is empty or an ephemeral session was requested. Persist and Clear act on the
// slot only; an identity already in use is never changed by them.
package identity
