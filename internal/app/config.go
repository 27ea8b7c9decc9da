package app

import (
	"github.com/adamgoose/age-chat/internal/transport"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home       string // config directory, e.g. $HOME/.agechat
	Passphrase string // optional; seals the identity slot at rest
	BrokerURL  string // rendezvous broker, e.g. ws://127.0.0.1:8787
	InviteBase string // base of invite links, e.g. https://chat.example
	Debug      bool

	// Anonymous forces an ephemeral identity regardless of the invite.
	Anonymous bool
	// LargePayload overrides the coordinator's worker threshold.
	LargePayload int

	// Transport is optional; defaults to the broker at BrokerURL.
	Transport transport.Transport
}
