package interfaces

import (
	domaintypes "github.com/adamgoose/age-chat/internal/domain/types"
)

// CryptoProvider supplies the asymmetric primitives. All methods are pure.
type CryptoProvider interface {
	GenerateIdentity() (domaintypes.Identity, error)
	// Encrypt seals text-path payloads (ASCII output).
	Encrypt(recipient domaintypes.PublicKey, plaintext []byte) ([]byte, error)
	Decrypt(private domaintypes.PrivateKey, ciphertext []byte) ([]byte, error)
	// EncryptBytes seals binary payloads (binary output).
	EncryptBytes(recipient domaintypes.PublicKey, plaintext []byte) ([]byte, error)
	DecryptBytes(private domaintypes.PrivateKey, ciphertext []byte) ([]byte, error)
	Fingerprint(a, b domaintypes.PublicKey) (domaintypes.Fingerprint, error)
}

// IdentityService loads, persists and clears the local identity.
type IdentityService interface {
	Load(ephemeral bool) (domaintypes.Identity, error)
	Persist(id domaintypes.Identity) error
	Clear() error
}

// EnvelopeCodec turns plaintext payloads into envelopes and back.
type EnvelopeCodec interface {
	EncryptMessage(recipient domaintypes.PublicKey, text string) ([]byte, error)
	DecryptMessage(private domaintypes.PrivateKey, ciphertext []byte) (string, error)
	EncryptFile(recipient domaintypes.PublicKey, data []byte) ([]byte, error)
	DecryptFile(private domaintypes.PrivateKey, ciphertext []byte) ([]byte, error)
	Marshal(env domaintypes.Envelope) ([]byte, error)
	Unmarshal(data []byte) (domaintypes.Envelope, error)
}

// HistoryLog is the append-only record of session events.
type HistoryLog interface {
	Append(event domaintypes.HistoryEvent) domaintypes.HistoryEntry
	Snapshot() []domaintypes.HistoryEntry
}
