package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/adamgoose/age-chat/internal/util/memzero"
)

// sealVersion tags the sealed slot format.
const sealVersion = 1

var (
	// ErrWrongPassphrase is returned when a sealed slot does not open: the
	// passphrase is wrong, the file was modified or it was sealed for a
	// different slot.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted identity")
	// ErrPassphraseRequired is returned when a sealed slot is read without a
	// passphrase.
	ErrPassphraseRequired = errors.New("identity slot is sealed; passphrase required")
)

// kdf holds the scrypt parameters a slot was sealed with.
type kdf struct {
	Salt []byte `json:"salt"`
	N    int    `json:"n"`
	R    int    `json:"r"`
	P    int    `json:"p"`
}

func newKDF() (kdf, error) {
	k := kdf{Salt: make([]byte, 16), N: 1 << 15, R: 8, P: 1}
	if _, err := rand.Read(k.Salt); err != nil {
		return kdf{}, err
	}
	return k, nil
}

func (k kdf) key(passphrase string) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), k.Salt, k.N, k.R, k.P, chacha20poly1305.KeySize)
}

// sealedSlot is the on-disk form of a passphrase-protected slot. The slot
// name is authenticated, so a file moved to another slot will not open.
type sealedSlot struct {
	Version int    `json:"v"`
	Slot    string `json:"slot"`
	KDF     kdf    `json:"kdf"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// seal encrypts raw for slot under a key derived from passphrase.
func seal(slot, passphrase string, raw []byte) ([]byte, error) {
	k, err := newKDF()
	if err != nil {
		return nil, err
	}
	key, err := k.key(passphrase)
	if err != nil {
		return nil, err
	}
	defer memzero.Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return json.Marshal(sealedSlot{
		Version: sealVersion,
		Slot:    slot,
		KDF:     k,
		Nonce:   nonce,
		Box:     aead.Seal(nil, nonce, raw, []byte(slot)),
	})
}

// unseal opens b, which must have been sealed for slot.
func unseal(slot, passphrase string, b []byte) ([]byte, error) {
	var s sealedSlot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode sealed slot: %w", err)
	}
	if s.Version != sealVersion {
		return nil, fmt.Errorf("unsupported sealed slot version %d", s.Version)
	}

	key, err := s.KDF.key(passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer memzero.Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(s.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	raw, err := aead.Open(nil, s.Nonce, s.Box, []byte(slot))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}

// isSealed reports whether raw slot contents are a sealed slot rather
// than a plain key pair.
func isSealed(b []byte) bool {
	var head struct {
		V int `json:"v"`
	}
	return json.Unmarshal(b, &head) == nil && head.V > 0
}
