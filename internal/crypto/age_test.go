package crypto_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/adamgoose/age-chat/internal/crypto"
	"github.com/adamgoose/age-chat/internal/domain"
)

// makeIdentity returns a fresh age identity.
func makeIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.NewAge().GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	return id
}

func TestGenerateIdentity_Format(t *testing.T) {
	id := makeIdentity(t)
	if !strings.HasPrefix(id.PublicKey.String(), "age1") {
		t.Fatalf("public key %q lacks age1 prefix", id.PublicKey)
	}
	if !strings.HasPrefix(id.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Fatalf("private key lacks AGE-SECRET-KEY-1 prefix")
	}
	if _, err := crypto.ParseRecipient(id.PublicKey); err != nil {
		t.Fatalf("ParseRecipient: %v", err)
	}
}

func TestEncryptDecrypt_Text(t *testing.T) {
	p := crypto.NewAge()
	id := makeIdentity(t)

	ct, err := p.Encrypt(id.PublicKey, []byte("hello there"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.HasPrefix(ct, []byte("-----BEGIN AGE ENCRYPTED FILE-----")) {
		t.Fatalf("text ciphertext is not armored: %q", ct[:32])
	}
	pt, err := p.Decrypt(id.PrivateKey, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "hello there" {
		t.Fatalf("got %q, want %q", pt, "hello there")
	}
}

func TestEncryptDecrypt_Bytes(t *testing.T) {
	p := crypto.NewAge()
	id := makeIdentity(t)
	data := bytes.Repeat([]byte{0x00, 0xff, 0x10}, 10_000)

	ct, err := p.EncryptBytes(id.PublicKey, data)
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}
	pt, err := p.DecryptBytes(id.PrivateKey, ct)
	if err != nil {
		t.Fatalf("DecryptBytes: %v", err)
	}
	if !bytes.Equal(pt, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestDecrypt_ForeignKeyFails(t *testing.T) {
	p := crypto.NewAge()
	alice := makeIdentity(t)
	mallory := makeIdentity(t)

	ct, err := p.Encrypt(alice.PublicKey, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := p.Decrypt(mallory.PrivateKey, ct); err == nil {
		t.Fatal("expected error decrypting with a foreign key")
	}
}

func TestEncrypt_InvalidRecipient(t *testing.T) {
	_, err := crypto.NewAge().Encrypt("not-a-key", []byte("x"))
	if !errors.Is(err, crypto.ErrInvalidRecipient) {
		t.Fatalf("want ErrInvalidRecipient, got %v", err)
	}
}

func TestDecrypt_InvalidIdentity(t *testing.T) {
	_, err := crypto.NewAge().DecryptBytes("nope", []byte("x"))
	if !errors.Is(err, crypto.ErrInvalidIdentity) {
		t.Fatalf("want ErrInvalidIdentity, got %v", err)
	}
}
