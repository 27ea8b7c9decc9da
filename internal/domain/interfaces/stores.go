package interfaces

import domaintypes "github.com/adamgoose/age-chat/internal/domain/types"

// IdentityStore persists the local identity in a single named slot.
type IdentityStore interface {
	SaveIdentity(id domaintypes.Identity) error
	// LoadIdentity returns ok=false when the slot is empty.
	LoadIdentity() (domaintypes.Identity, bool, error)
	DeleteIdentity() error
}
