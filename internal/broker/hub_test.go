package broker_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/adamgoose/age-chat/internal/broker"
	"github.com/adamgoose/age-chat/internal/domain"
)

func startHub(t *testing.T) (*broker.Hub, string) {
	t.Helper()
	h := broker.NewHub(nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return h, srv.URL
}

func connect(t *testing.T, base string, addr domain.PublicKey) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u := "ws" + strings.TrimPrefix(base, "http") + broker.ConnectPath + "?address=" + string(addr)
	c, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = c.CloseNow() })
	if f := read(t, c); f.Type != broker.FrameOpen {
		t.Fatalf("first frame = %+v, want open", f)
	}
	return c
}

func read(t *testing.T, c *websocket.Conn) broker.Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f broker.Frame
	if err := wsjson.Read(ctx, c, &f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func write(t *testing.T, c *websocket.Conn, f broker.Frame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c, f); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	_, base := startHub(t)
	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestConnect_MissingAddress(t *testing.T) {
	_, base := startHub(t)
	resp, err := http.Get(base + broker.ConnectPath)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestForwarding(t *testing.T) {
	_, base := startHub(t)
	alice := connect(t, base, "age1alice")
	bob := connect(t, base, "age1bob")

	write(t, alice, broker.Frame{Type: broker.FrameDial, Link: "l1", To: "age1bob"})
	if f := read(t, bob); f.Type != broker.FrameDial || f.Link != "l1" || f.From != "age1alice" {
		t.Fatalf("bob got %+v", f)
	}

	// Data before accept is not forwarded.
	write(t, alice, broker.Frame{Type: broker.FrameData, Link: "l1", Payload: []byte("early")})

	write(t, bob, broker.Frame{Type: broker.FrameAccept, Link: "l1"})
	if f := read(t, alice); f.Type != broker.FrameAccept || f.Link != "l1" {
		t.Fatalf("alice got %+v", f)
	}

	write(t, alice, broker.Frame{Type: broker.FrameData, Link: "l1", Payload: []byte("sealed")})
	if f := read(t, bob); f.Type != broker.FrameData || string(f.Payload) != "sealed" {
		t.Fatalf("bob got %+v", f)
	}

	write(t, bob, broker.Frame{Type: broker.FrameClose, Link: "l1"})
	if f := read(t, alice); f.Type != broker.FrameClose || f.Link != "l1" || f.Error != "" {
		t.Fatalf("alice got %+v", f)
	}
}

func TestDial_PeerUnavailable(t *testing.T) {
	_, base := startHub(t)
	alice := connect(t, base, "age1alice")

	write(t, alice, broker.Frame{Type: broker.FrameDial, Link: "l1", To: "age1ghost"})
	f := read(t, alice)
	if f.Type != broker.FrameClose || f.Link != "l1" || f.Error != broker.ReasonPeerUnavailable {
		t.Fatalf("alice got %+v", f)
	}
}

func TestConnect_AddressInUse(t *testing.T) {
	_, base := startHub(t)
	connect(t, base, "age1alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u := "ws" + strings.TrimPrefix(base, "http") + broker.ConnectPath + "?address=age1alice"
	c, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.CloseNow()
	_, _, err = c.Read(ctx)
	if got := websocket.CloseStatus(err); got != broker.StatusAddressInUse {
		t.Fatalf("close status = %d, want %d", got, broker.StatusAddressInUse)
	}
}

func TestDisconnect_ClosesLinks(t *testing.T) {
	h, base := startHub(t)
	alice := connect(t, base, "age1alice")
	bob := connect(t, base, "age1bob")

	write(t, alice, broker.Frame{Type: broker.FrameDial, Link: "l1", To: "age1bob"})
	read(t, bob)
	write(t, bob, broker.Frame{Type: broker.FrameAccept, Link: "l1"})
	read(t, alice)

	if err := alice.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f := read(t, bob); f.Type != broker.FrameClose || f.Link != "l1" {
		t.Fatalf("bob got %+v", f)
	}

	deadline := time.Now().Add(5 * time.Second)
	for h.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want 1", h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
