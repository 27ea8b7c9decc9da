package types

import "strings"

// PublicKey is an age X25519 recipient ("age1...").
// It doubles as the transport address of the endpoint that owns it.
type PublicKey string

// String returns the string form of the key.
func (k PublicKey) String() string { return string(k) }

// IsZero reports whether the key is unset.
func (k PublicKey) IsZero() bool { return k == "" }

// Less orders keys lexicographically.
func (k PublicKey) Less(other PublicKey) bool { return strings.Compare(string(k), string(other)) < 0 }

// Short returns an abbreviated form for display and logs.
func (k PublicKey) Short() string {
	if len(k) <= 16 {
		return string(k)
	}
	return string(k[:10]) + "…" + string(k[len(k)-6:])
}

// PrivateKey is an age X25519 identity ("AGE-SECRET-KEY-1...").
type PrivateKey string

// String returns the string form of the key.
func (k PrivateKey) String() string { return string(k) }

// Fingerprint is the human-verifiable mnemonic shared by both ends of a link.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// LinkID identifies a single Link instance.
type LinkID string

// String returns the string form of the identifier.
func (id LinkID) String() string { return string(id) }
