package crypto_test

import (
	"strings"
	"testing"

	"github.com/adamgoose/age-chat/internal/crypto"
)

func TestFingerprint_Symmetric(t *testing.T) {
	for i := 0; i < 8; i++ {
		a := makeIdentity(t).PublicKey
		b := makeIdentity(t).PublicKey

		ab, err := crypto.Fingerprint(a, b)
		if err != nil {
			t.Fatalf("Fingerprint(a,b): %v", err)
		}
		ba, err := crypto.Fingerprint(b, a)
		if err != nil {
			t.Fatalf("Fingerprint(b,a): %v", err)
		}
		if ab != ba {
			t.Fatalf("fingerprint not symmetric:\n%s\n%s", ab, ba)
		}
	}
}

func TestFingerprint_TwentyFourWords(t *testing.T) {
	a := makeIdentity(t).PublicKey
	b := makeIdentity(t).PublicKey
	fp, err := crypto.Fingerprint(a, b)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if n := len(strings.Fields(fp.String())); n != 24 {
		t.Fatalf("want 24 words, got %d", n)
	}
}

func TestFingerprint_DependsOnBothKeys(t *testing.T) {
	a := makeIdentity(t).PublicKey
	b := makeIdentity(t).PublicKey
	c := makeIdentity(t).PublicKey

	ab, _ := crypto.Fingerprint(a, b)
	ac, _ := crypto.Fingerprint(a, c)
	if ab == ac {
		t.Fatal("different peers produced the same fingerprint")
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	// Fixed inputs always yield the same mnemonic.
	a := makeIdentity(t).PublicKey
	b := makeIdentity(t).PublicKey
	first, _ := crypto.Fingerprint(a, b)
	second, _ := crypto.Fingerprint(a, b)
	if first != second {
		t.Fatal("fingerprint is not deterministic")
	}
}
