// Package broker is a transport that reaches peers through the rendezvous
// broker over a websocket.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adamgoose/age-chat/internal/broker"
	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/transport"
)

const writeTimeout = 10 * time.Second

// Transport dials the broker at Base for every Listen.
type Transport struct {
	Base string
	Log  *zap.Logger
}

// New returns a Transport for the broker at base, e.g. ws://127.0.0.1:8787.
// http and https URLs are accepted and mapped to ws and wss.
func New(base string, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{Base: base, Log: log}
}

// ConnectURL returns the websocket URL registering address.
func ConnectURL(base string, address domain.PublicKey) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("broker url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("broker url: unsupported scheme %q", u.Scheme)
	}
	u.Path += broker.ConnectPath
	u.RawQuery = url.Values{"address": {string(address)}}.Encode()
	return u.String(), nil
}

// Listen connects to the broker and registers address. EndpointOpened
// follows once the broker confirms the registration.
func (t *Transport) Listen(ctx context.Context, address domain.PublicKey, sink transport.Sink) (transport.Endpoint, error) {
	u, err := ConnectURL(t.Base, address)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	conn.SetReadLimit(broker.MaxFrameSize)

	rctx, cancel := context.WithCancel(context.Background())
	ep := &endpoint{
		addr:   address,
		conn:   conn,
		sink:   sink,
		log:    t.Log.With(zap.String("address", address.Short())),
		ctx:    rctx,
		cancel: cancel,
		links:  make(map[domain.LinkID]*link),
	}
	go ep.readLoop()
	return ep, nil
}

type endpoint struct {
	addr   domain.PublicKey
	conn   *websocket.Conn
	sink   transport.Sink
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	links  map[domain.LinkID]*link
}

func (e *endpoint) Address() domain.PublicKey { return e.addr }

func (e *endpoint) Dial(ctx context.Context, address domain.PublicKey) (transport.Link, error) {
	l := &link{ep: e, id: domain.LinkID(uuid.NewString()), peer: address, outbound: true}
	if !e.track(l) {
		return nil, transport.ErrEndpointClosed
	}
	if err := e.write(ctx, broker.Frame{Type: broker.FrameDial, Link: l.id, To: address}); err != nil {
		e.untrack(l.id)
		return nil, err
	}
	return l, nil
}

func (e *endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	links := make([]*link, 0, len(e.links))
	for _, l := range e.links {
		links = append(links, l)
	}
	e.mu.Unlock()

	for _, l := range links {
		_ = l.Close()
	}
	if err := e.conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		e.log.Debug("closing broker connection", zap.Error(err))
	}
	e.cancel()
	return nil
}

func (e *endpoint) readLoop() {
	var cause error
	opened := false
	for {
		var f broker.Frame
		if err := wsjson.Read(e.ctx, e.conn, &f); err != nil {
			cause = e.classify(err, opened)
			break
		}
		if f.Type == broker.FrameOpen {
			opened = true
		}
		e.handle(f)
	}

	e.mu.Lock()
	e.closed = true
	links := e.links
	e.links = make(map[domain.LinkID]*link)
	e.mu.Unlock()
	for _, l := range links {
		if l.markClosed() {
			e.sink(transport.LinkClosed{Link: l, Err: cause})
		}
	}
	e.cancel()
	e.sink(transport.EndpointClosed{Err: cause})
}

// classify maps a read error to the error reported with EndpointClosed.
// A local Close reports nil.
func (e *endpoint) classify(err error, opened bool) error {
	e.mu.Lock()
	local := e.closed
	e.mu.Unlock()
	switch {
	case local:
		return nil
	case websocket.CloseStatus(err) == broker.StatusAddressInUse:
		return transport.ErrAddressInUse
	case opened && websocket.CloseStatus(err) == websocket.StatusNormalClosure:
		return nil
	default:
		return fmt.Errorf("broker: read: %w", err)
	}
}

func (e *endpoint) handle(f broker.Frame) {
	switch f.Type {
	case broker.FrameOpen:
		e.log.Debug("registered with broker")
		e.sink(transport.EndpointOpened{})
	case broker.FrameDial:
		l := &link{ep: e, id: f.Link, peer: f.From}
		if !e.track(l) {
			return
		}
		e.sink(transport.InboundLink{Link: l})
	case broker.FrameAccept:
		if l := e.lookup(f.Link); l != nil && l.outbound && l.markOpen() {
			e.sink(transport.LinkOpened{Link: l})
		}
	case broker.FrameData:
		if l := e.lookup(f.Link); l != nil && l.isOpen() {
			e.sink(transport.LinkData{Link: l, Payload: f.Payload})
		}
	case broker.FrameClose:
		l := e.lookup(f.Link)
		if l == nil {
			return
		}
		e.untrack(l.id)
		if !l.markClosed() {
			return
		}
		var cause error
		switch f.Error {
		case "":
		case broker.ReasonPeerUnavailable:
			cause = transport.ErrPeerUnavailable
		default:
			cause = errors.New(f.Error)
		}
		e.sink(transport.LinkClosed{Link: l, Err: cause})
	default:
		e.log.Debug("ignoring frame", zap.String("type", string(f.Type)))
	}
}

func (e *endpoint) track(l *link) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	if _, dup := e.links[l.id]; dup {
		return false
	}
	e.links[l.id] = l
	return true
}

func (e *endpoint) untrack(id domain.LinkID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.links, id)
}

func (e *endpoint) lookup(id domain.LinkID) *link {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.links[id]
}

func (e *endpoint) write(ctx context.Context, f broker.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, e.conn, f); err != nil {
		return fmt.Errorf("broker: write %s: %w", f.Type, err)
	}
	return nil
}

type link struct {
	ep       *endpoint
	id       domain.LinkID
	peer     domain.PublicKey
	outbound bool

	mu     sync.Mutex
	open   bool
	closed bool
}

func (l *link) ID() domain.LinkID      { return l.id }
func (l *link) Peer() domain.PublicKey { return l.peer }
func (l *link) Outbound() bool         { return l.outbound }

func (l *link) Accept() error {
	if l.outbound {
		return nil
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return transport.ErrLinkClosed
	}
	if l.open {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	if err := l.ep.write(l.ep.ctx, broker.Frame{Type: broker.FrameAccept, Link: l.id}); err != nil {
		return err
	}
	if l.markOpen() {
		l.ep.sink(transport.LinkOpened{Link: l})
	}
	return nil
}

func (l *link) Send(payload []byte) error {
	if !l.isOpen() {
		return transport.ErrLinkClosed
	}
	// The broker drops a connection that sends an oversized frame.
	if len(payload) > broker.MaxPayload {
		return fmt.Errorf("%w: %d bytes, limit %d", transport.ErrPayloadTooLarge, len(payload), broker.MaxPayload)
	}
	return l.ep.write(l.ep.ctx, broker.Frame{Type: broker.FrameData, Link: l.id, Payload: payload})
}

func (l *link) Close() error {
	if !l.markClosed() {
		return nil
	}
	l.ep.untrack(l.id)
	_ = l.ep.write(l.ep.ctx, broker.Frame{Type: broker.FrameClose, Link: l.id})
	l.ep.sink(transport.LinkClosed{Link: l})
	return nil
}

func (l *link) markOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open || l.closed {
		return false
	}
	l.open = true
	return true
}

// markClosed reports whether this call did the closing.
func (l *link) markClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.closed = true
	return true
}

func (l *link) isOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open && !l.closed
}

// Compile-time assertion that Transport implements transport.Transport.
var _ transport.Transport = (*Transport)(nil)
