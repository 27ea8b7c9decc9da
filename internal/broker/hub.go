package broker

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/adamgoose/age-chat/internal/domain"
)

const writeTimeout = 10 * time.Second

// Hub tracks connected endpoints and the links between them.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[domain.PublicKey]*client
	links   map[domain.LinkID]*route
}

type client struct {
	addr domain.PublicKey
	conn *websocket.Conn
}

// route is one link between a dialer and its target.
type route struct {
	dialer   *client
	target   *client
	accepted bool
}

func (r *route) other(c *client) *client {
	if r.dialer == c {
		return r.target
	}
	return r.dialer
}

// NewHub returns an empty Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		clients: make(map[domain.PublicKey]*client),
		links:   make(map[domain.LinkID]*route),
	}
}

// Routes returns the broker's HTTP handler.
func (h *Hub) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(ConnectPath, h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Clients returns the number of registered addresses.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves one endpoint until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	addr := domain.PublicKey(r.URL.Query().Get("address"))
	if addr.IsZero() {
		http.Error(w, "missing address", http.StatusBadRequest)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(MaxFrameSize)

	c := &client{addr: addr, conn: conn}
	log := h.log.With(zap.String("address", addr.Short()))
	if !h.register(c) {
		log.Info("address in use")
		_ = conn.Close(StatusAddressInUse, "address in use")
		return
	}
	defer h.unregister(c)
	log.Info("endpoint registered", zap.String("remote", r.RemoteAddr))

	ctx := r.Context()
	if err := h.write(ctx, c, Frame{Type: FrameOpen}); err != nil {
		return
	}
	for {
		var f Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Debug("endpoint read ended", zap.Error(err))
			}
			return
		}
		h.handle(ctx, c, f)
	}
}

func (h *Hub) handle(ctx context.Context, c *client, f Frame) {
	switch f.Type {
	case FrameDial:
		h.dial(ctx, c, f)
	case FrameAccept:
		h.mu.Lock()
		rt := h.links[f.Link]
		ok := rt != nil && rt.target == c && !rt.accepted
		if ok {
			rt.accepted = true
		}
		h.mu.Unlock()
		if ok {
			_ = h.write(ctx, rt.dialer, Frame{Type: FrameAccept, Link: f.Link})
		}
	case FrameData:
		h.mu.Lock()
		rt := h.links[f.Link]
		var peer *client
		if rt != nil && rt.accepted && (rt.dialer == c || rt.target == c) {
			peer = rt.other(c)
		}
		h.mu.Unlock()
		if peer != nil {
			_ = h.write(ctx, peer, Frame{Type: FrameData, Link: f.Link, Payload: f.Payload})
		}
	case FrameClose:
		h.mu.Lock()
		rt := h.links[f.Link]
		var peer *client
		if rt != nil && (rt.dialer == c || rt.target == c) {
			delete(h.links, f.Link)
			peer = rt.other(c)
		}
		h.mu.Unlock()
		if peer != nil {
			_ = h.write(ctx, peer, Frame{Type: FrameClose, Link: f.Link})
		}
	default:
		h.log.Debug("ignoring frame", zap.String("type", string(f.Type)))
	}
}

func (h *Hub) dial(ctx context.Context, c *client, f Frame) {
	h.mu.Lock()
	target := h.clients[f.To]
	_, dup := h.links[f.Link]
	reason := ""
	switch {
	case f.Link == "" || dup:
		reason = ReasonDuplicateLink
	case target == nil || target == c:
		reason = ReasonPeerUnavailable
	default:
		h.links[f.Link] = &route{dialer: c, target: target}
	}
	h.mu.Unlock()

	if reason != "" {
		_ = h.write(ctx, c, Frame{Type: FrameClose, Link: f.Link, Error: reason})
		return
	}
	h.log.Debug("forwarding dial",
		zap.String("from", c.addr.Short()),
		zap.String("to", f.To.Short()),
		zap.String("link", string(f.Link)))
	_ = h.write(ctx, target, Frame{Type: FrameDial, Link: f.Link, From: c.addr})
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.clients[c.addr]; taken {
		return false
	}
	h.clients[c.addr] = c
	return true
}

// unregister drops c and closes every link it was part of.
func (h *Hub) unregister(c *client) {
	type notice struct {
		to   *client
		link domain.LinkID
	}
	var notices []notice

	h.mu.Lock()
	if h.clients[c.addr] == c {
		delete(h.clients, c.addr)
	}
	for id, rt := range h.links {
		if rt.dialer == c || rt.target == c {
			delete(h.links, id)
			notices = append(notices, notice{to: rt.other(c), link: id})
		}
	}
	h.mu.Unlock()

	for _, n := range notices {
		_ = h.write(context.Background(), n.to, Frame{Type: FrameClose, Link: n.link})
	}
	h.log.Info("endpoint left", zap.String("address", c.addr.Short()), zap.Int("links_closed", len(notices)))
}

// write sends f to c. Failures are logged; the reader of c notices the
// broken connection.
func (h *Hub) write(ctx context.Context, c *client, f Frame) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, f); err != nil {
		h.log.Debug("write failed",
			zap.String("to", c.addr.Short()),
			zap.String("type", string(f.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
