package crypto

import (
	"crypto/sha256"
	"slices"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/adamgoose/age-chat/internal/domain"
)

// Fingerprint returns a 24-word BIP-39 mnemonic over both public keys.
//
// The keys are sorted before hashing, so Fingerprint(a, b) equals
// Fingerprint(b, a) whichever side dialed.
func Fingerprint(a, b domain.PublicKey) (domain.Fingerprint, error) {
	keys := []string{a.String(), b.String()}
	slices.Sort(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, "")))
	m, err := bip39.NewMnemonic(sum[:])
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(m), nil
}
