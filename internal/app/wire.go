package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adamgoose/age-chat/internal/crypto"
	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/history"
	"github.com/adamgoose/age-chat/internal/services/coordinator"
	"github.com/adamgoose/age-chat/internal/services/envelope"
	identitysvc "github.com/adamgoose/age-chat/internal/services/identity"
	"github.com/adamgoose/age-chat/internal/services/session"
	"github.com/adamgoose/age-chat/internal/store"
	"github.com/adamgoose/age-chat/internal/transport"
	"github.com/adamgoose/age-chat/internal/transport/broker"
)

// Wire bundles the long-lived stores, services and transport for the CLI.
type Wire struct {
	Config    Config
	Log       *zap.Logger
	Crypto    *crypto.Age
	Store     *store.IdentityFileStore
	Identity  *identitysvc.Service
	Codec     *envelope.Codec
	Transport transport.Transport
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *zap.Logger) (*Wire, error) {
	if cfg.Home == "" {
		return nil, errors.New("app: home directory is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	// File-based identity slot
	identityStore := store.NewIdentityFileStore(cfg.Home, cfg.Passphrase)

	// Crypto provider and the services on top of it
	age := crypto.NewAge()
	identity := identitysvc.New(identityStore, age, log.Named("identity"))
	codec := envelope.New(age)

	// Peer transport; the broker unless the caller supplied one
	tr := cfg.Transport
	if tr == nil {
		if cfg.BrokerURL == "" {
			return nil, errors.New("app: broker URL is required")
		}
		tr = broker.New(cfg.BrokerURL, log.Named("transport"))
	}

	return &Wire{
		Config:    cfg,
		Log:       log,
		Crypto:    age,
		Store:     identityStore,
		Identity:  identity,
		Codec:     codec,
		Transport: tr,
	}, nil
}

// Session is one chat session: the identity in use, its history and the
// coordinator driving the connection. Call Coordinator.Run to start it.
type Session struct {
	Identity    domain.Identity
	Ephemeral   bool
	Recipient   domain.PublicKey
	History     *history.Log
	Coordinator *coordinator.Coordinator
}

// NewSession resolves inv, loads the identity and builds the coordinator.
// The identity is only written to the slot by an explicit Identity.Persist.
func (w *Wire) NewSession(inv session.Invite) (*Session, error) {
	ephemeral := inv.Ephemeral || w.Config.Anonymous
	recipient, _, err := session.ResolveInitialRecipient(inv.Segment, ephemeral)
	if err != nil {
		return nil, err
	}

	id, err := w.Identity.Load(ephemeral)
	if err != nil {
		return nil, err
	}
	hist := history.New()
	coord, err := coordinator.New(coordinator.Config{
		Identity:         id,
		Transport:        w.Transport,
		Codec:            w.Codec,
		Crypto:           w.Crypto,
		History:          hist,
		Logger:           w.Log.Named("coordinator"),
		InitialRecipient: recipient,
		LargePayload:     w.Config.LargePayload,
	})
	if err != nil {
		return nil, fmt.Errorf("build coordinator: %w", err)
	}
	return &Session{
		Identity:    id,
		Ephemeral:   ephemeral,
		Recipient:   recipient,
		History:     hist,
		Coordinator: coord,
	}, nil
}

// InviteLink returns the link a peer opens to reach id.
func (w *Wire) InviteLink(id domain.Identity, ephemeral bool) string {
	return session.InviteLink(w.Config.InviteBase, id.PublicKey, ephemeral)
}
