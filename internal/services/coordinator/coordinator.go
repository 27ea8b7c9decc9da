package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/services/envelope"
	"github.com/adamgoose/age-chat/internal/transport"
)

var (
	// ErrEndpointFailed is returned by Run when the local endpoint could
	// not be opened.
	ErrEndpointFailed = errors.New("endpoint failed to open")
	// ErrNotRunning is returned by commands issued after Run has returned.
	ErrNotRunning = errors.New("coordinator not running")
)

// DefaultLargePayload is the file size above which envelope crypto runs
// off the dispatch goroutine.
const DefaultLargePayload = 1 << 20

// failureBuffer bounds Failures; reports beyond it are dropped.
const failureBuffer = 16

// Config carries the collaborators of a Coordinator.
type Config struct {
	Identity  domain.Identity
	Transport transport.Transport
	Codec     domain.EnvelopeCodec
	Crypto    domain.CryptoProvider
	History   domain.HistoryLog
	Logger    *zap.Logger

	// InitialRecipient is dialed once the endpoint opens. Optional.
	InitialRecipient domain.PublicKey
	// LargePayload overrides DefaultLargePayload. Negative disables workers.
	LargePayload int
}

// Coordinator drives one chat session. Create with New, then call Run.
type Coordinator struct {
	id        domain.Identity
	transport transport.Transport
	codec     domain.EnvelopeCodec
	crypto    domain.CryptoProvider
	log       *zap.Logger
	large     int

	mail     *mailbox
	queue    releaseQueue
	failures chan error
	workers  sync.WaitGroup
	stopped  chan struct{}

	stateMu sync.RWMutex
	state   domain.ConnectionState

	// Owned by the dispatch goroutine.
	ctx          context.Context
	endpoint     transport.Endpoint
	endpointOpen bool
	link         transport.Link
	linkOpen     bool
	recipient    domain.PublicKey
	fingerprint  domain.Fingerprint
	tornDown     bool
}

// New returns a Coordinator for cfg.
func New(cfg Config) (*Coordinator, error) {
	switch {
	case cfg.Identity.IsZero():
		return nil, errors.New("coordinator: identity is required")
	case cfg.Transport == nil:
		return nil, errors.New("coordinator: transport is required")
	case cfg.Codec == nil:
		return nil, errors.New("coordinator: envelope codec is required")
	case cfg.Crypto == nil:
		return nil, errors.New("coordinator: crypto provider is required")
	case cfg.History == nil:
		return nil, errors.New("coordinator: history log is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	large := cfg.LargePayload
	if large == 0 {
		large = DefaultLargePayload
	}
	return &Coordinator{
		id:        cfg.Identity,
		transport: cfg.Transport,
		codec:     cfg.Codec,
		crypto:    cfg.Crypto,
		log:       log.With(zap.String("self", cfg.Identity.PublicKey.Short())),
		large:     large,
		mail:      newMailbox(),
		queue:     releaseQueue{log: cfg.History},
		failures:  make(chan error, failureBuffer),
		stopped:   make(chan struct{}),
		recipient: cfg.InitialRecipient,
		state:     domain.ConnectionState{Recipient: cfg.InitialRecipient},
	}, nil
}

// State returns a snapshot of the connection state.
func (c *Coordinator) State() domain.ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Failures reports envelopes that arrived but could not be decrypted.
func (c *Coordinator) Failures() <-chan error { return c.failures }

// Done is closed once Run has returned.
func (c *Coordinator) Done() <-chan struct{} { return c.stopped }

// Run opens the local endpoint and dispatches until ctx is cancelled,
// Shutdown is called or the endpoint closes. Teardown happens before
// Run returns.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.stopped)
	c.ctx = ctx

	ep, err := c.transport.Listen(ctx, c.id.PublicKey, c.notify)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointFailed, err)
	}
	c.endpoint = ep
	c.log.Debug("endpoint listening")

	var rest []any
	defer func() {
		c.teardown()
		c.workers.Wait()
		c.settle(rest)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.mail.ready:
			batch := c.mail.take()
			for i, n := range batch {
				if stop, err := c.dispatch(n); stop {
					rest = batch[i+1:]
					return err
				}
			}
			c.publish()
		}
	}
}

// settle runs after teardown once every worker has finished. Worker
// results still queued are recorded so history keeps their slots, and
// commands still queued are refused.
func (c *Coordinator) settle(pending []any) {
	pending = append(pending, c.mail.take()...)
	for _, n := range pending {
		switch n := n.(type) {
		case fileOpened:
			c.onFileOpened(n)
		case fileSealed:
			c.onFileSealed(n)
		case sendMessage:
			n.done <- ErrNotRunning
		case sendFile:
			n.done <- ErrNotRunning
		}
	}
	if n := c.queue.waiting(); n > 0 {
		c.log.Warn("history slots left unresolved", zap.Int("slots", n))
	}
}

// SendMessage encrypts text for the current peer and sends it. With no
// open link it does nothing and returns nil.
func (c *Coordinator) SendMessage(ctx context.Context, text string) error {
	done := make(chan error, 1)
	c.mail.put(sendMessage{text: text, done: done})
	return c.await(ctx, done)
}

// SendFile encrypts data for the current peer and sends it with its
// metadata. With no open link it does nothing and returns nil.
func (c *Coordinator) SendFile(ctx context.Context, meta domain.FileMetadata, data []byte) error {
	meta.Size = int64(len(data))
	done := make(chan error, 1)
	c.mail.put(sendFile{meta: meta, data: data, done: done})
	return c.await(ctx, done)
}

// Shutdown closes the link and the endpoint and waits for Run to return.
// It may be called more than once.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mail.put(shutdown{})
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify is the transport sink. It only enqueues.
func (c *Coordinator) notify(ev transport.Event) { c.mail.put(ev) }

func (c *Coordinator) await(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-c.stopped:
		select {
		case err := <-done:
			return err
		default:
			return ErrNotRunning
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Commands and worker results queued next to transport events.
type (
	sendMessage struct {
		text string
		done chan<- error
	}
	sendFile struct {
		meta domain.FileMetadata
		data []byte
		done chan<- error
	}
	shutdown   struct{}
	fileSealed struct {
		ticket uint64
		link   domain.LinkID
		meta   domain.FileMetadata
		data   []byte
		sealed []byte
		err    error
		done   chan<- error
	}
	fileOpened struct {
		ticket uint64
		from   domain.PublicKey
		meta   domain.FileMetadata
		data   []byte
		err    error
	}
)

// dispatch handles one notification. stop reports that Run must return err.
func (c *Coordinator) dispatch(n any) (stop bool, err error) {
	switch n := n.(type) {
	case transport.EndpointOpened:
		c.onEndpointOpened()
	case transport.EndpointClosed:
		return c.onEndpointClosed(n)
	case transport.InboundLink:
		c.onInbound(n.Link)
	case transport.LinkOpened:
		c.onLinkOpened(n.Link)
	case transport.LinkClosed:
		c.onLinkClosed(n.Link, n.Err)
	case transport.LinkData:
		c.onData(n.Link, n.Payload)
	case sendMessage:
		n.done <- c.sendMessage(n.text)
	case sendFile:
		c.sendFile(n)
	case fileSealed:
		c.onFileSealed(n)
	case fileOpened:
		c.onFileOpened(n)
	case shutdown:
		return true, nil
	default:
		c.log.Warn("unknown notification", zap.String("type", fmt.Sprintf("%T", n)))
	}
	return false, nil
}

func (c *Coordinator) onEndpointOpened() {
	c.endpointOpen = true
	c.log.Info("endpoint open")
	if c.recipient.IsZero() || c.link != nil {
		return
	}
	if c.recipient == c.id.PublicKey {
		c.log.Warn("not dialing own address")
		c.recipient = ""
		return
	}
	c.dial(c.recipient)
}

func (c *Coordinator) onEndpointClosed(ev transport.EndpointClosed) (bool, error) {
	wasOpen := c.endpointOpen
	c.endpointOpen = false
	c.dropLink()
	if !wasOpen {
		if ev.Err == nil {
			return true, ErrEndpointFailed
		}
		return true, fmt.Errorf("%w: %v", ErrEndpointFailed, ev.Err)
	}
	if ev.Err != nil {
		c.log.Warn("endpoint closed", zap.Error(ev.Err))
		return true, fmt.Errorf("endpoint closed: %w", ev.Err)
	}
	return true, nil
}

func (c *Coordinator) dial(peer domain.PublicKey) {
	l, err := c.endpoint.Dial(c.ctx, peer)
	if err != nil {
		c.log.Warn("dial failed", zap.String("peer", peer.Short()), zap.Error(err))
		c.recipient = ""
		return
	}
	c.link = l
	c.linkOpen = false
	c.log.Debug("dialing", zap.String("peer", peer.Short()), zap.String("link", string(l.ID())))
}

// onInbound decides whether to take a link a peer dialed. When both sides
// dial each other at once, the link dialed by the smaller key wins.
func (c *Coordinator) onInbound(l transport.Link) {
	peer := l.Peer()
	log := c.log.With(zap.String("peer", peer.Short()), zap.String("link", string(l.ID())))

	switch {
	case c.link != nil && !c.linkOpen && c.link.Outbound() && c.link.Peer() == peer:
		if c.id.PublicKey.Less(peer) {
			log.Debug("mutual dial: keeping our outbound link")
			c.reject(l)
			return
		}
		log.Debug("mutual dial: abandoning our outbound link")
		pending := c.link
		c.link = nil
		_ = pending.Close()
	case c.link != nil:
		log.Info("rejecting inbound link: already linked")
		c.reject(l)
		return
	case !c.recipient.IsZero() && c.recipient != peer:
		log.Info("rejecting inbound link: recipient already set")
		c.reject(l)
		return
	}

	if err := l.Accept(); err != nil {
		log.Warn("accept failed", zap.Error(err))
		_ = l.Close()
		return
	}
	c.link = l
	c.linkOpen = false
	c.recipient = peer
}

func (c *Coordinator) reject(l transport.Link) {
	if err := l.Close(); err != nil {
		c.log.Debug("closing rejected link", zap.Error(err))
	}
}

func (c *Coordinator) current(l transport.Link) bool {
	return c.link != nil && l != nil && c.link.ID() == l.ID()
}

func (c *Coordinator) onLinkOpened(l transport.Link) {
	if !c.current(l) || c.linkOpen {
		return
	}
	peer := l.Peer()
	c.linkOpen = true
	c.recipient = peer

	fp, err := c.crypto.Fingerprint(c.id.PublicKey, peer)
	if err != nil {
		c.log.Warn("fingerprint failed", zap.Error(err))
	}
	c.fingerprint = fp
	c.log.Info("link open", zap.String("peer", peer.Short()))
	c.queue.emit(domain.LinkOpenedEvent{Peer: peer, Fingerprint: fp})
}

func (c *Coordinator) onLinkClosed(l transport.Link, cause error) {
	if !c.current(l) {
		return
	}
	if cause != nil {
		c.log.Info("link closed", zap.String("peer", l.Peer().Short()), zap.Error(cause))
	}
	c.dropLink()
}

// dropLink releases the current link and clears the peer. A LinkClosed
// event is recorded only for a link that had opened.
func (c *Coordinator) dropLink() {
	l, wasOpen := c.link, c.linkOpen
	c.link = nil
	c.linkOpen = false
	c.recipient = ""
	c.fingerprint = ""
	if l == nil {
		return
	}
	_ = l.Close()
	if wasOpen {
		c.queue.emit(domain.LinkClosedEvent{Peer: l.Peer()})
	}
}

func (c *Coordinator) onData(l transport.Link, payload []byte) {
	if !c.current(l) || !c.linkOpen {
		return
	}
	from := l.Peer()
	env, err := c.codec.Unmarshal(payload)
	if err != nil {
		c.log.Warn("dropping malformed frame", zap.String("peer", from.Short()), zap.Error(err))
		return
	}

	switch env.Kind {
	case domain.EnvelopeMessage:
		text, err := c.codec.DecryptMessage(c.id.PrivateKey, env.Ciphertext)
		if err != nil {
			c.fail(from, err)
			return
		}
		c.queue.emit(domain.MessageEvent{From: from, Text: text})
	case domain.EnvelopeFile:
		meta := *env.Metadata
		if c.offload(len(env.Ciphertext)) {
			ticket := c.queue.reserve()
			c.spawn(func() {
				data, err := c.codec.DecryptFile(c.id.PrivateKey, env.Ciphertext)
				c.mail.put(fileOpened{ticket: ticket, from: from, meta: meta, data: data, err: err})
			})
			return
		}
		data, err := c.codec.DecryptFile(c.id.PrivateKey, env.Ciphertext)
		if err != nil {
			c.fail(from, err)
			return
		}
		c.queue.emit(fileEvent(from, meta, data))
	}
}

func (c *Coordinator) onFileOpened(r fileOpened) {
	if r.err != nil {
		c.queue.resolve(r.ticket, nil)
		c.fail(r.from, r.err)
		return
	}
	c.queue.resolve(r.ticket, fileEvent(r.from, r.meta, r.data))
}

// fail reports a payload that could not be decrypted. It never blocks.
func (c *Coordinator) fail(from domain.PublicKey, err error) {
	c.log.Warn("dropping undecryptable payload", zap.String("peer", from.Short()), zap.Error(err))
	if !errors.Is(err, envelope.ErrDecryption) {
		err = fmt.Errorf("%w: %v", envelope.ErrDecryption, err)
	}
	select {
	case c.failures <- fmt.Errorf("from %s: %w", from.Short(), err):
	default:
	}
}

func (c *Coordinator) sendMessage(text string) error {
	if !c.linkOpen {
		return nil
	}
	ct, err := c.codec.EncryptMessage(c.recipient, text)
	if err != nil {
		return err
	}
	if err := c.transmit(domain.Envelope{Kind: domain.EnvelopeMessage, Ciphertext: ct}); err != nil {
		return err
	}
	c.queue.emit(domain.MessageEvent{From: c.id.PublicKey, Text: text})
	return nil
}

func (c *Coordinator) sendFile(cmd sendFile) {
	if !c.linkOpen {
		cmd.done <- nil
		return
	}
	if c.offload(len(cmd.data)) {
		ticket := c.queue.reserve()
		linkID, recipient := c.link.ID(), c.recipient
		c.spawn(func() {
			sealed, err := c.codec.EncryptFile(recipient, cmd.data)
			c.mail.put(fileSealed{
				ticket: ticket, link: linkID, meta: cmd.meta,
				data: cmd.data, sealed: sealed, err: err, done: cmd.done,
			})
		})
		return
	}
	sealed, err := c.codec.EncryptFile(c.recipient, cmd.data)
	if err != nil {
		cmd.done <- err
		return
	}
	meta := cmd.meta
	if err := c.transmit(domain.Envelope{Kind: domain.EnvelopeFile, Ciphertext: sealed, Metadata: &meta}); err != nil {
		cmd.done <- err
		return
	}
	c.queue.emit(fileEvent(c.id.PublicKey, cmd.meta, cmd.data))
	cmd.done <- nil
}

func (c *Coordinator) onFileSealed(r fileSealed) {
	switch {
	case r.err != nil:
		c.queue.resolve(r.ticket, nil)
		r.done <- r.err
	case !c.linkOpen || c.link.ID() != r.link:
		// The link went away while encrypting.
		c.queue.resolve(r.ticket, nil)
		r.done <- nil
	default:
		meta := r.meta
		if err := c.transmit(domain.Envelope{Kind: domain.EnvelopeFile, Ciphertext: r.sealed, Metadata: &meta}); err != nil {
			c.queue.resolve(r.ticket, nil)
			r.done <- err
			return
		}
		c.queue.resolve(r.ticket, fileEvent(c.id.PublicKey, r.meta, r.data))
		r.done <- nil
	}
}

func (c *Coordinator) transmit(env domain.Envelope) error {
	frame, err := c.codec.Marshal(env)
	if err != nil {
		return err
	}
	if err := c.link.Send(frame); err != nil {
		return fmt.Errorf("send to %s: %w", c.link.Peer().Short(), err)
	}
	return nil
}

func (c *Coordinator) offload(n int) bool { return c.large > 0 && n > c.large }

func (c *Coordinator) spawn(fn func()) {
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		fn()
	}()
}

// teardown closes the link, then the endpoint. Safe to call twice.
func (c *Coordinator) teardown() {
	if c.tornDown {
		return
	}
	c.tornDown = true
	c.dropLink()
	if c.endpoint != nil {
		if err := c.endpoint.Close(); err != nil {
			c.log.Debug("closing endpoint", zap.Error(err))
		}
	}
	c.endpointOpen = false
	c.publish()
	c.log.Debug("torn down")
}

func (c *Coordinator) publish() {
	s := domain.ConnectionState{
		EndpointOpen: c.endpointOpen,
		LinkOpen:     c.linkOpen,
		Recipient:    c.recipient,
		Fingerprint:  c.fingerprint,
	}
	if c.link != nil {
		s.LinkID = c.link.ID()
	}
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

func fileEvent(from domain.PublicKey, meta domain.FileMetadata, data []byte) domain.FileEvent {
	return domain.FileEvent{
		From:     from,
		Filename: meta.Filename,
		Size:     meta.Size,
		MIME:     meta.MIME,
		Data:     data,
	}
}
