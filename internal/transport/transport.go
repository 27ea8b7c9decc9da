// Package transport defines the contract between the connection coordinator
// and a peer transport.
//
// A transport reports everything that happens to an endpoint and its links
// as Event values delivered to a single Sink. Sinks must not block; the
// coordinator's sink only enqueues.
package transport

import (
	"context"
	"errors"

	"github.com/adamgoose/age-chat/internal/domain"
)

var (
	// ErrLinkClosed is returned by Send on a link that is not open.
	ErrLinkClosed = errors.New("link closed")
	// ErrPeerUnavailable reports a dial to an address nobody listens on.
	ErrPeerUnavailable = errors.New("peer unavailable")
	// ErrAddressInUse reports a Listen on an address already registered.
	ErrAddressInUse = errors.New("address in use")
	// ErrEndpointClosed is returned by Dial on a closed endpoint.
	ErrEndpointClosed = errors.New("endpoint closed")
	// ErrPayloadTooLarge is returned by Send for a payload the transport
	// cannot carry. The link stays open.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Transport opens local endpoints.
type Transport interface {
	// Listen registers address and returns immediately. EndpointOpened or
	// EndpointClosed follows on sink.
	Listen(ctx context.Context, address domain.PublicKey, sink Sink) (Endpoint, error)
}

// Endpoint is a local endpoint addressed by a public key.
type Endpoint interface {
	Address() domain.PublicKey
	// Dial starts an outbound link. LinkOpened or LinkClosed follows.
	Dial(ctx context.Context, address domain.PublicKey) (Link, error)
	// Close releases the endpoint and every link on it. Idempotent.
	Close() error
}

// Link is one transport binding to a peer.
type Link interface {
	ID() domain.LinkID
	Peer() domain.PublicKey
	// Outbound reports whether the local side dialed.
	Outbound() bool
	// Accept opens an inbound link. It is a no-op for outbound links.
	Accept() error
	// Send delivers payload to the peer, fire-and-forget.
	Send(payload []byte) error
	// Close releases the link. Idempotent.
	Close() error
}

// Sink receives transport events.
type Sink func(Event)

// Event is one of EndpointOpened, EndpointClosed, InboundLink, LinkOpened,
// LinkClosed or LinkData.
type Event interface{ isTransportEvent() }

// EndpointOpened reports that the endpoint is registered and reachable.
type EndpointOpened struct{}

// EndpointClosed reports the endpoint going away. Err is nil on a local Close.
type EndpointClosed struct{ Err error }

// InboundLink reports a remote dial. The link opens once accepted.
type InboundLink struct{ Link Link }

// LinkOpened reports a link reaching the open state.
type LinkOpened struct{ Link Link }

// LinkClosed reports a link closing, whether it ever opened or not.
type LinkClosed struct {
	Link Link
	Err  error
}

// LinkData carries one payload received on a link.
type LinkData struct {
	Link    Link
	Payload []byte
}

func (EndpointOpened) isTransportEvent() {}
func (EndpointClosed) isTransportEvent() {}
func (InboundLink) isTransportEvent()    {}
func (LinkOpened) isTransportEvent()     {}
func (LinkClosed) isTransportEvent()     {}
func (LinkData) isTransportEvent()       {}
