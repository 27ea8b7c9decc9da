package coordinator

import "sync"

// mailbox is an unbounded FIFO with a level-triggered ready signal.
// put never blocks, so transports may deliver from any goroutine,
// including from inside a call the dispatch loop made.
type mailbox struct {
	mu    sync.Mutex
	items []any
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) put(n any) {
	m.mu.Lock()
	m.items = append(m.items, n)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// take removes and returns everything queued so far.
func (m *mailbox) take() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}
