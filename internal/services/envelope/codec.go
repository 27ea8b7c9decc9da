package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adamgoose/age-chat/internal/domain"
)

var (
	// ErrEncryption is returned when a payload cannot be sealed, including
	// when no recipient is bound.
	ErrEncryption = errors.New("encryption failed")
	// ErrDecryption is returned for malformed or foreign-keyed ciphertext.
	ErrDecryption = errors.New("decryption failed")
	// ErrProtocol is returned for frames that are not a known envelope.
	ErrProtocol = errors.New("protocol error")
)

// Codec implements domain.EnvelopeCodec on top of a crypto provider.
type Codec struct {
	crypto domain.CryptoProvider
}

// New returns a Codec delegating to c.
func New(c domain.CryptoProvider) *Codec { return &Codec{crypto: c} }

// EncryptMessage seals text for recipient.
func (c *Codec) EncryptMessage(recipient domain.PublicKey, text string) ([]byte, error) {
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: no recipient bound", ErrEncryption)
	}
	ct, err := c.crypto.Encrypt(recipient, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	return ct, nil
}

// DecryptMessage opens a text ciphertext with the local private key.
func (c *Codec) DecryptMessage(private domain.PrivateKey, ciphertext []byte) (string, error) {
	pt, err := c.crypto.Decrypt(private, ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(pt), nil
}

// EncryptFile seals raw file bytes for recipient.
func (c *Codec) EncryptFile(recipient domain.PublicKey, data []byte) ([]byte, error) {
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: no recipient bound", ErrEncryption)
	}
	ct, err := c.crypto.EncryptBytes(recipient, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	return ct, nil
}

// DecryptFile opens a file ciphertext with the local private key.
func (c *Codec) DecryptFile(private domain.PrivateKey, ciphertext []byte) ([]byte, error) {
	pt, err := c.crypto.DecryptBytes(private, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return pt, nil
}

// Marshal encodes env for the wire.
func (c *Codec) Marshal(env domain.Envelope) ([]byte, error) {
	if err := validate(env); err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Unmarshal decodes a wire frame. Unknown kinds and malformed frames yield
// ErrProtocol.
func (c *Codec) Unmarshal(data []byte) (domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if err := validate(env); err != nil {
		return domain.Envelope{}, err
	}
	return env, nil
}

func validate(env domain.Envelope) error {
	switch env.Kind {
	case domain.EnvelopeMessage:
	case domain.EnvelopeFile:
		if env.Metadata == nil {
			return fmt.Errorf("%w: file envelope without metadata", ErrProtocol)
		}
		if env.Metadata.Size < 0 {
			return fmt.Errorf("%w: negative file size", ErrProtocol)
		}
	default:
		return fmt.Errorf("%w: unknown envelope kind %q", ErrProtocol, env.Kind)
	}
	if len(env.Ciphertext) == 0 {
		return fmt.Errorf("%w: empty ciphertext", ErrProtocol)
	}
	return nil
}

// Compile-time assertion that Codec implements domain.EnvelopeCodec.
var _ domain.EnvelopeCodec = (*Codec)(nil)
