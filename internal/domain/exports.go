package domain

import (
	interfaces "github.com/adamgoose/age-chat/internal/domain/interfaces"
	types "github.com/adamgoose/age-chat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PublicKey       = types.PublicKey
	PrivateKey      = types.PrivateKey
	Fingerprint     = types.Fingerprint
	LinkID          = types.LinkID
	Identity        = types.Identity
	EnvelopeKind    = types.EnvelopeKind
	FileMetadata    = types.FileMetadata
	Envelope        = types.Envelope
	EventKind       = types.EventKind
	HistoryEvent    = types.HistoryEvent
	MessageEvent    = types.MessageEvent
	FileEvent       = types.FileEvent
	LinkOpenedEvent = types.LinkOpenedEvent
	LinkClosedEvent = types.LinkClosedEvent
	HistoryEntry    = types.HistoryEntry
	ConnectionState = types.ConnectionState
)

// Constant re-exports.
const (
	EnvelopeMessage = types.EnvelopeMessage
	EnvelopeFile    = types.EnvelopeFile

	EventMessage    = types.EventMessage
	EventFile       = types.EventFile
	EventLinkOpened = types.EventLinkOpened
	EventLinkClosed = types.EventLinkClosed
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	CryptoProvider  = interfaces.CryptoProvider
	IdentityService = interfaces.IdentityService
	EnvelopeCodec   = interfaces.EnvelopeCodec
	HistoryLog      = interfaces.HistoryLog
	IdentityStore   = interfaces.IdentityStore
)
