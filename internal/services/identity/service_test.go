package identity_test

import (
	"errors"
	"testing"

	"github.com/adamgoose/age-chat/internal/crypto"
	"github.com/adamgoose/age-chat/internal/services/identity"
	"github.com/adamgoose/age-chat/internal/store"
)

func newService(t *testing.T, home string) *identity.Service {
	t.Helper()
	return identity.New(store.NewIdentityFileStore(home, ""), crypto.NewAge(), nil)
}

func TestLoad_GeneratesWhenEmpty(t *testing.T) {
	svc := newService(t, t.TempDir())
	id, err := svc.Load(false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if id.PublicKey == "" || id.PrivateKey == "" {
		t.Fatal("generated identity is empty")
	}
}

func TestLoad_ReturnsPersisted(t *testing.T) {
	home := t.TempDir()
	first := newService(t, home)
	id, err := first.Load(false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := first.Persist(id); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := newService(t, home).Load(false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != id {
		t.Fatal("persisted identity was not reused")
	}
}

func TestLoad_EphemeralIgnoresSlot(t *testing.T) {
	home := t.TempDir()
	svc := newService(t, home)
	id, _ := svc.Load(false)
	if err := svc.Persist(id); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	eph := newService(t, home)
	got, err := eph.Load(true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PublicKey == id.PublicKey {
		t.Fatal("ephemeral load reused the persisted identity")
	}
	if err := eph.Persist(got); !errors.Is(err, identity.ErrEphemeral) {
		t.Fatalf("want ErrEphemeral, got %v", err)
	}
}

func TestClear_PurgesSlotOnly(t *testing.T) {
	home := t.TempDir()
	svc := newService(t, home)
	id, _ := svc.Load(false)
	if err := svc.Persist(id); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := svc.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.NewIdentityFileStore(home, "").LoadIdentity(); ok {
		t.Fatal("slot survived Clear")
	}
	next, _ := newService(t, home).Load(false)
	if next.PublicKey == id.PublicKey {
		t.Fatal("a fresh process should obtain a new identity after Clear")
	}
}
