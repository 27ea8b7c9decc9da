package coordinator

import "github.com/adamgoose/age-chat/internal/domain"

// slot is one history append waiting its turn. A nil event means the
// slot was resolved with nothing to record.
type slot struct {
	ticket uint64
	ready  bool
	event  domain.HistoryEvent
}

// releaseQueue hands events to the history log in the order their slots
// were reserved, no matter when background work resolves them.
type releaseQueue struct {
	log     domain.HistoryLog
	next    uint64
	pending []*slot
}

// emit records event now, or behind any unresolved slot.
func (q *releaseQueue) emit(event domain.HistoryEvent) {
	if len(q.pending) == 0 {
		q.log.Append(event)
		return
	}
	q.next++
	q.pending = append(q.pending, &slot{ticket: q.next, ready: true, event: event})
}

// reserve holds a place for an event that is not known yet.
func (q *releaseQueue) reserve() uint64 {
	q.next++
	q.pending = append(q.pending, &slot{ticket: q.next})
	return q.next
}

// resolve fills a reserved slot and flushes every ready slot at the head.
func (q *releaseQueue) resolve(ticket uint64, event domain.HistoryEvent) {
	for _, s := range q.pending {
		if s.ticket == ticket {
			s.ready = true
			s.event = event
			break
		}
	}
	for len(q.pending) > 0 && q.pending[0].ready {
		if ev := q.pending[0].event; ev != nil {
			q.log.Append(ev)
		}
		q.pending = q.pending[1:]
	}
}

// waiting reports the number of slots not yet released.
func (q *releaseQueue) waiting() int { return len(q.pending) }
