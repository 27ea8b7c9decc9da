package identity

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adamgoose/age-chat/internal/domain"
)

var (
	// ErrEphemeral is returned by Persist when the session was loaded in
	// ephemeral mode; the slot must stay absent.
	ErrEphemeral = errors.New("ephemeral identity cannot be persisted")
)

// Service manages identity creation and access using a backing store.
type Service struct {
	store     domain.IdentityStore
	crypto    domain.CryptoProvider
	log       *zap.Logger
	ephemeral bool
}

// New returns an identity service backed by the given store and provider.
func New(s domain.IdentityStore, c domain.CryptoProvider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, crypto: c, log: log}
}

// Load returns the persisted identity, or a freshly generated one if the
// slot is empty or ephemeral is set. A fresh identity is not persisted.
func (s *Service) Load(ephemeral bool) (domain.Identity, error) {
	s.ephemeral = ephemeral
	if !ephemeral {
		id, ok, err := s.store.LoadIdentity()
		if err != nil {
			return domain.Identity{}, fmt.Errorf("load identity: %w", err)
		}
		if ok {
			s.log.Debug("loaded persisted identity", zap.String("public_key", id.PublicKey.Short()))
			return id, nil
		}
	}

	id, err := s.crypto.GenerateIdentity()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("generate identity: %w", err)
	}
	s.log.Debug("generated identity",
		zap.String("public_key", id.PublicKey.Short()),
		zap.Bool("ephemeral", ephemeral))
	return id, nil
}

// Persist writes id to the slot.
func (s *Service) Persist(id domain.Identity) error {
	if s.ephemeral {
		return ErrEphemeral
	}
	if err := s.store.SaveIdentity(id); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	s.log.Info("identity persisted", zap.String("public_key", id.PublicKey.Short()))
	return nil
}

// Clear removes the slot. The identity in use stays valid until restart.
func (s *Service) Clear() error {
	if err := s.store.DeleteIdentity(); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	s.log.Info("identity slot cleared")
	return nil
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
