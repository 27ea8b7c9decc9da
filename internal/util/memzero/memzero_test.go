package memzero_test

import (
	"testing"

	"github.com/adamgoose/age-chat/internal/util/memzero"
)

func TestWipe(t *testing.T) {
	a, b := []byte("secret"), []byte{1, 2, 3}
	memzero.Wipe(a, nil, b)
	for _, buf := range [][]byte{a, b} {
		for i, v := range buf {
			if v != 0 {
				t.Fatalf("byte %d = %d after Wipe", i, v)
			}
		}
	}
}
