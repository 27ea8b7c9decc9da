package coordinator

import (
	"testing"

	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/history"
)

func texts(h *history.Log) []string {
	var out []string
	for _, e := range h.Snapshot() {
		out = append(out, e.Event.(domain.MessageEvent).Text)
	}
	return out
}

func TestReleaseQueue_HoldsBehindReservation(t *testing.T) {
	h := history.New()
	q := releaseQueue{log: h}

	q.emit(domain.MessageEvent{Text: "a"})
	ticket := q.reserve()
	q.emit(domain.MessageEvent{Text: "c"})
	if got := h.Len(); got != 1 {
		t.Fatalf("entries before resolve = %d, want 1", got)
	}

	q.resolve(ticket, domain.MessageEvent{Text: "b"})
	got := texts(h)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", got)
	}
	if q.waiting() != 0 {
		t.Fatalf("waiting = %d after flush", q.waiting())
	}
}

func TestReleaseQueue_OutOfOrderResolution(t *testing.T) {
	h := history.New()
	q := releaseQueue{log: h}

	first := q.reserve()
	second := q.reserve()
	q.resolve(second, domain.MessageEvent{Text: "second"})
	if h.Len() != 0 {
		t.Fatal("second released before first")
	}
	q.resolve(first, domain.MessageEvent{Text: "first"})
	got := texts(h)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("order = %v", got)
	}
}

func TestReleaseQueue_NilResolutionSkips(t *testing.T) {
	h := history.New()
	q := releaseQueue{log: h}

	ticket := q.reserve()
	q.emit(domain.MessageEvent{Text: "after"})
	q.resolve(ticket, nil)
	got := texts(h)
	if len(got) != 1 || got[0] != "after" {
		t.Fatalf("order = %v, want [after]", got)
	}
}

func TestMailbox_FIFO(t *testing.T) {
	m := newMailbox()
	m.put(1)
	m.put(2)
	select {
	case <-m.ready:
	default:
		t.Fatal("ready not signalled")
	}
	items := m.take()
	if len(items) != 2 || items[0] != 1 || items[1] != 2 {
		t.Fatalf("items = %v", items)
	}
	if len(m.take()) != 0 {
		t.Fatal("take did not drain")
	}
}
