package app_test

import (
	"errors"
	"os"
	"testing"

	"github.com/adamgoose/age-chat/internal/app"
	"github.com/adamgoose/age-chat/internal/services/session"
	"github.com/adamgoose/age-chat/internal/transport/memory"
)

func newWire(t *testing.T, anonymous bool) *app.Wire {
	t.Helper()
	w, err := app.NewWire(app.Config{
		Home:       t.TempDir(),
		InviteBase: "https://chat.example",
		Anonymous:  anonymous,
		Transport:  memory.NewNetwork(),
	}, nil)
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	return w
}

func TestNewWire_RequiresHome(t *testing.T) {
	if _, err := app.NewWire(app.Config{Transport: memory.NewNetwork()}, nil); err == nil {
		t.Fatal("expected an error without a home directory")
	}
}

func TestNewWire_RequiresBrokerWithoutTransport(t *testing.T) {
	if _, err := app.NewWire(app.Config{Home: t.TempDir()}, nil); err == nil {
		t.Fatal("expected an error without broker URL or transport")
	}
}

func TestNewSession_PersistsOnlyWhenAsked(t *testing.T) {
	w := newWire(t, false)

	first, err := w.NewSession(session.Invite{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if first.Ephemeral || !first.Recipient.IsZero() {
		t.Fatalf("unexpected session: %+v", first)
	}
	if _, err := os.Stat(w.Store.Path()); !os.IsNotExist(err) {
		t.Fatalf("slot written without being asked: %v", err)
	}

	if err := w.Identity.Persist(first.Identity); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	second, err := w.NewSession(session.Invite{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if second.Identity != first.Identity {
		t.Fatal("second session did not reuse the persisted identity")
	}
}

func TestNewSession_EphemeralLeavesSlotAbsent(t *testing.T) {
	for name, tc := range map[string]struct {
		anonymous bool
		invite    session.Invite
	}{
		"invite flag": {invite: session.Invite{Ephemeral: true}},
		"config flag": {anonymous: true},
	} {
		t.Run(name, func(t *testing.T) {
			w := newWire(t, tc.anonymous)
			s, err := w.NewSession(tc.invite)
			if err != nil {
				t.Fatalf("NewSession: %v", err)
			}
			if !s.Ephemeral {
				t.Fatal("session should be ephemeral")
			}
			if _, err := os.Stat(w.Store.Path()); !os.IsNotExist(err) {
				t.Fatalf("slot exists after ephemeral session: %v", err)
			}
		})
	}
}

func TestNewSession_ResolvesRecipient(t *testing.T) {
	w := newWire(t, true)
	peer, err := w.Crypto.GenerateIdentity()
	if err != nil {
		t.Fatal(err)
	}
	inv, err := session.ParseInvite(w.InviteLink(peer, false))
	if err != nil {
		t.Fatalf("ParseInvite: %v", err)
	}
	s, err := w.NewSession(inv)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Recipient != peer.PublicKey {
		t.Fatalf("recipient = %s, want %s", s.Recipient, peer.PublicKey)
	}
	if got := s.Coordinator.State().Recipient; got != peer.PublicKey {
		t.Fatalf("coordinator recipient = %s", got)
	}
}

func TestNewSession_InvalidInvite(t *testing.T) {
	w := newWire(t, true)
	_, err := w.NewSession(session.Invite{Segment: "not-a-key"})
	if !errors.Is(err, session.ErrInvalidInvite) {
		t.Fatalf("err = %v, want ErrInvalidInvite", err)
	}
}
