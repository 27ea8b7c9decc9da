package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestSeal_BoundToSlot(t *testing.T) {
	raw := []byte(`{"publicKey":"age1x","privateKey":"AGE-SECRET-KEY-1X"}`)
	b, err := seal(SlotName, "pw", raw)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !isSealed(b) || isSealed(raw) {
		t.Fatal("isSealed misclassified the slot contents")
	}

	got, err := unseal(SlotName, "pw", b)
	if err != nil {
		t.Fatalf("unseal: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("unseal = %q", got)
	}
	if _, err := unseal("other.keypair", "pw", b); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("unseal for another slot = %v, want ErrWrongPassphrase", err)
	}
}

func TestSeal_TamperedBoxRejected(t *testing.T) {
	b, err := seal(SlotName, "pw", []byte("secret"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	var s sealedSlot
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatal(err)
	}
	s.Box[0] ^= 0x01
	tampered, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := unseal(SlotName, "pw", tampered); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("unseal tampered = %v, want ErrWrongPassphrase", err)
	}
}
