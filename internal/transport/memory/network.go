package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/transport"
)

// Network connects endpoints by address.
type Network struct {
	mu        sync.Mutex
	endpoints map[domain.PublicKey]*endpoint
	dials     int
}

// NewNetwork returns an empty Network.
func NewNetwork() *Network {
	return &Network{endpoints: make(map[domain.PublicKey]*endpoint)}
}

// Dials returns the number of Dial calls made on the network.
func (n *Network) Dials() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dials
}

// Listen registers address and reports EndpointOpened on sink.
func (n *Network) Listen(_ context.Context, address domain.PublicKey, sink transport.Sink) (transport.Endpoint, error) {
	n.mu.Lock()
	if _, taken := n.endpoints[address]; taken {
		n.mu.Unlock()
		return nil, fmt.Errorf("listen %s: %w", address.Short(), transport.ErrAddressInUse)
	}
	ep := &endpoint{net: n, addr: address, sink: sink, links: make(map[domain.LinkID]*link)}
	n.endpoints[address] = ep
	n.mu.Unlock()

	sink(transport.EndpointOpened{})
	return ep, nil
}

func (n *Network) lookup(address domain.PublicKey) *endpoint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.endpoints[address]
}

func (n *Network) unregister(ep *endpoint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.endpoints[ep.addr] == ep {
		delete(n.endpoints, ep.addr)
	}
}

type endpoint struct {
	net  *Network
	addr domain.PublicKey
	sink transport.Sink

	mu     sync.Mutex
	closed bool
	links  map[domain.LinkID]*link
}

func (e *endpoint) Address() domain.PublicKey { return e.addr }

func (e *endpoint) Dial(_ context.Context, address domain.PublicKey) (transport.Link, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, transport.ErrEndpointClosed
	}
	e.mu.Unlock()

	e.net.mu.Lock()
	e.net.dials++
	e.net.mu.Unlock()

	p := &pair{id: domain.LinkID(uuid.NewString())}
	local := &link{pair: p, owner: e, peer: address, outbound: true}

	remoteEP := e.net.lookup(address)
	if remoteEP == nil {
		return e.refuse(local), nil
	}
	remote := &link{pair: p, owner: remoteEP, peer: e.addr}
	p.sides = [2]*link{local, remote}
	if !e.track(local) {
		return nil, transport.ErrEndpointClosed
	}
	if !remoteEP.track(remote) {
		e.untrack(local)
		return e.refuse(local), nil
	}
	remoteEP.sink(transport.InboundLink{Link: remote})
	return local, nil
}

// refuse closes a dial that found nobody listening.
func (e *endpoint) refuse(l *link) *link {
	l.pair.mu.Lock()
	l.pair.closed = true
	l.pair.mu.Unlock()
	e.sink(transport.LinkClosed{Link: l, Err: transport.ErrPeerUnavailable})
	return l
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
	e.net.unregister(e)
	e.sink(transport.EndpointClosed{})
	return nil
}

// track registers l and reports false if e is already closed.
func (e *endpoint) track(l *link) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.links[l.pair.id] = l
	return true
}

func (e *endpoint) untrack(l *link) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.links, l.pair.id)
}

// pair is the shared state of both halves of one link.
type pair struct {
	id     domain.LinkID
	mu     sync.Mutex
	sides  [2]*link
	open   bool
	closed bool
}

type link struct {
	pair     *pair
	owner    *endpoint
	peer     domain.PublicKey
	outbound bool
}

func (l *link) ID() domain.LinkID      { return l.pair.id }
func (l *link) Peer() domain.PublicKey { return l.peer }
func (l *link) Outbound() bool         { return l.outbound }

func (l *link) other() *link {
	if l.pair.sides[0] == l {
		return l.pair.sides[1]
	}
	return l.pair.sides[0]
}

func (l *link) Accept() error {
	if l.outbound {
		return nil
	}
	p := l.pair
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return transport.ErrLinkClosed
	}
	if p.open {
		p.mu.Unlock()
		return nil
	}
	p.open = true
	p.mu.Unlock()

	dialer := l.other()
	dialer.owner.sink(transport.LinkOpened{Link: dialer})
	l.owner.sink(transport.LinkOpened{Link: l})
	return nil
}

func (l *link) Send(payload []byte) error {
	p := l.pair
	p.mu.Lock()
	ok := p.open && !p.closed
	p.mu.Unlock()
	if !ok {
		return transport.ErrLinkClosed
	}
	peer := l.other()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	peer.owner.sink(transport.LinkData{Link: peer, Payload: buf})
	return nil
}

func (l *link) Close() error {
	p := l.pair
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	sides := p.sides
	p.mu.Unlock()

	for _, s := range sides {
		if s == nil {
			continue
		}
		s.owner.untrack(s)
		s.owner.sink(transport.LinkClosed{Link: s})
	}
	return nil
}

// Compile-time assertion that Network implements transport.Transport.
var _ transport.Transport = (*Network)(nil)
