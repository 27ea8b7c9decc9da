package types

// Identity holds the local age key pair. The JSON layout matches the
// persisted slot: {"publicKey": "...", "privateKey": "..."}.
type Identity struct {
	PublicKey  PublicKey  `json:"publicKey"`
	PrivateKey PrivateKey `json:"privateKey"`
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool { return id.PublicKey == "" && id.PrivateKey == "" }
