package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/adamgoose/age-chat/internal/domain"
)

var (
	// ErrInvalidRecipient is returned when a public key does not parse as an
	// age X25519 recipient.
	ErrInvalidRecipient = errors.New("invalid age recipient")
	// ErrInvalidIdentity is returned when a private key does not parse as an
	// age X25519 identity.
	ErrInvalidIdentity = errors.New("invalid age identity")
)

// Age implements domain.CryptoProvider with age X25519 keys.
type Age struct{}

// NewAge returns the age-backed crypto provider.
func NewAge() *Age { return &Age{} }

// GenerateIdentity returns a fresh X25519 key pair.
func (Age) GenerateIdentity() (domain.Identity, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		PublicKey:  domain.PublicKey(id.Recipient().String()),
		PrivateKey: domain.PrivateKey(id.String()),
	}, nil
}

// Encrypt seals plaintext to recipient and returns ASCII-armored ciphertext.
func (Age) Encrypt(recipient domain.PublicKey, plaintext []byte) ([]byte, error) {
	r, err := ParseRecipient(recipient)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	if err := seal(aw, r, plaintext); err != nil {
		return nil, err
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("armor close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens armored ciphertext produced by Encrypt.
func (Age) Decrypt(private domain.PrivateKey, ciphertext []byte) ([]byte, error) {
	id, err := parseIdentity(private)
	if err != nil {
		return nil, err
	}
	return open(armor.NewReader(bytes.NewReader(ciphertext)), id)
}

// EncryptBytes seals plaintext to recipient using the binary age format.
func (Age) EncryptBytes(recipient domain.PublicKey, plaintext []byte) ([]byte, error) {
	r, err := ParseRecipient(recipient)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(plaintext) + 256)
	if err := seal(&buf, r, plaintext); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecryptBytes opens binary ciphertext produced by EncryptBytes.
func (Age) DecryptBytes(private domain.PrivateKey, ciphertext []byte) ([]byte, error) {
	id, err := parseIdentity(private)
	if err != nil {
		return nil, err
	}
	return open(bytes.NewReader(ciphertext), id)
}

// Fingerprint returns the symmetric mnemonic for the pair (a, b).
func (Age) Fingerprint(a, b domain.PublicKey) (domain.Fingerprint, error) {
	return Fingerprint(a, b)
}

// ParseRecipient validates and parses an age X25519 public key.
func ParseRecipient(pub domain.PublicKey) (*age.X25519Recipient, error) {
	r, err := age.ParseX25519Recipient(pub.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	return r, nil
}

func parseIdentity(priv domain.PrivateKey) (*age.X25519Identity, error) {
	id, err := age.ParseX25519Identity(priv.String())
	if err != nil {
		return nil, ErrInvalidIdentity
	}
	return id, nil
}

func seal(dst io.Writer, r age.Recipient, plaintext []byte) error {
	w, err := age.Encrypt(dst, r)
	if err != nil {
		return fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("age write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("age close: %w", err)
	}
	return nil
}

func open(src io.Reader, id age.Identity) ([]byte, error) {
	r, err := age.Decrypt(src, id)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("age read: %w", err)
	}
	return out, nil
}

// Compile-time assertion that Age implements domain.CryptoProvider.
var _ domain.CryptoProvider = Age{}
