package history_test

import (
	"sync"
	"testing"
	"time"

	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/history"
)

func TestAppend_OrderAndSeq(t *testing.T) {
	l := history.New()
	l.Append(domain.LinkOpenedEvent{Peer: "age1peer", Fingerprint: "abandon ability"})
	l.Append(domain.MessageEvent{From: "age1peer", Text: "hi"})
	l.Append(domain.LinkClosedEvent{Peer: "age1peer"})

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("want 3 entries, got %d", len(snap))
	}
	kinds := []domain.EventKind{domain.EventLinkOpened, domain.EventMessage, domain.EventLinkClosed}
	for i, e := range snap {
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d: seq %d", i, e.Seq)
		}
		if e.Event.Kind() != kinds[i] {
			t.Fatalf("entry %d: kind %s, want %s", i, e.Event.Kind(), kinds[i])
		}
	}
}

func TestAppend_TimestampsNonDecreasing(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// The clock jumps backwards on the third call.
	ticks := []time.Time{base, base.Add(time.Second), base.Add(-time.Hour), base.Add(2 * time.Second)}
	i := 0
	l := history.New(history.WithClock(func() time.Time {
		ts := ticks[i]
		i++
		return ts
	}))
	for range ticks {
		l.Append(domain.MessageEvent{From: "age1me", Text: "x"})
	}
	snap := l.Snapshot()
	for j := 1; j < len(snap); j++ {
		if snap[j].Timestamp.Before(snap[j-1].Timestamp) {
			t.Fatalf("timestamp %d went backwards: %v < %v", j, snap[j].Timestamp, snap[j-1].Timestamp)
		}
	}
	if !snap[2].Timestamp.Equal(snap[1].Timestamp) {
		t.Fatalf("regressed clock should clamp to previous stamp, got %v", snap[2].Timestamp)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	l := history.New()
	l.Append(domain.MessageEvent{From: "a", Text: "one"})
	snap := l.Snapshot()
	snap[0].Seq = 99
	l.Append(domain.MessageEvent{From: "a", Text: "two"})

	if got := l.Snapshot(); got[0].Seq != 1 || len(got) != 2 {
		t.Fatalf("snapshot aliasing: %+v", got)
	}
	if len(snap) != 1 {
		t.Fatal("earlier snapshot grew")
	}
}

func TestSince(t *testing.T) {
	l := history.New()
	for _, s := range []string{"a", "b", "c"} {
		l.Append(domain.MessageEvent{Text: s})
	}
	got := l.Since(1)
	if len(got) != 2 || got[0].Seq != 2 || got[1].Seq != 3 {
		t.Fatalf("Since(1) = %+v", got)
	}
	if l.Since(3) != nil {
		t.Fatal("Since(last) should be empty")
	}
}

func TestChanged_FiresOnAppend(t *testing.T) {
	l := history.New()
	ch := l.Changed()
	select {
	case <-ch:
		t.Fatal("changed fired before append")
	default:
	}
	l.Append(domain.MessageEvent{Text: "x"})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("changed did not fire")
	}
}

func TestConcurrentReaders(t *testing.T) {
	l := history.New()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := l.Snapshot()
				for j := 1; j < len(snap); j++ {
					if snap[j].Seq != snap[j-1].Seq+1 {
						t.Errorf("gap in snapshot at %d", j)
						return
					}
				}
			}
		}()
	}
	for i := 0; i < 500; i++ {
		l.Append(domain.MessageEvent{Text: "x"})
	}
	close(stop)
	wg.Wait()
	if l.Len() != 500 {
		t.Fatalf("want 500 entries, got %d", l.Len())
	}
}
