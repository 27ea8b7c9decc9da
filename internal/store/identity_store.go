package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/util/memzero"
)

// SlotName is the fixed storage key of the persisted identity.
const SlotName = "age.keypair"

// IdentityFileStore persists the local identity to a single slot on disk.
type IdentityFileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir. A
// non-empty passphrase seals the slot at rest.
func NewIdentityFileStore(dir, passphrase string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, passphrase: passphrase}
}

// Path returns the location of the slot file.
func (s *IdentityFileStore) Path() string { return filepath.Join(s.dir, SlotName) }

// SaveIdentity writes the identity to the slot, replacing any previous one.
func (s *IdentityFileStore) SaveIdentity(id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	out := raw
	if s.passphrase != "" {
		out, err = seal(SlotName, s.passphrase, raw)
		memzero.Wipe(raw)
		if err != nil {
			return fmt.Errorf("seal identity: %w", err)
		}
	}
	if err := writeFile(s.Path(), out, 0o600); err != nil {
		return fmt.Errorf("write identity slot: %w", err)
	}
	return nil
}

// LoadIdentity reads the slot. ok is false when nothing is persisted.
func (s *IdentityFileStore) LoadIdentity() (domain.Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.Path())
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("read identity slot: %w", err)
	}
	if b == nil {
		return domain.Identity{}, false, nil
	}
	if isSealed(b) {
		if s.passphrase == "" {
			return domain.Identity{}, false, ErrPassphraseRequired
		}
		if b, err = unseal(SlotName, s.passphrase, b); err != nil {
			return domain.Identity{}, false, err
		}
		defer memzero.Wipe(b)
	}

	var id domain.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return domain.Identity{}, false, fmt.Errorf("decode identity slot: %w", err)
	}
	if id.PublicKey == "" || id.PrivateKey == "" {
		return domain.Identity{}, false, fmt.Errorf("decode identity slot: incomplete key pair")
	}
	return id, true, nil
}

// DeleteIdentity removes the slot. Deleting an empty slot is not an error.
func (s *IdentityFileStore) DeleteIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return removeFile(s.Path())
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
