package types

import "time"

// EventKind names a HistoryEvent variant.
type EventKind string

const (
	EventMessage    EventKind = "message"
	EventFile       EventKind = "file"
	EventLinkOpened EventKind = "link_opened"
	EventLinkClosed EventKind = "link_closed"
)

// HistoryEvent is one of MessageEvent, FileEvent, LinkOpenedEvent or
// LinkClosedEvent.
type HistoryEvent interface {
	Kind() EventKind
}

// MessageEvent records a text message sent or received.
type MessageEvent struct {
	From PublicKey `json:"from"`
	Text string    `json:"text"`
}

// FileEvent records a file sent or received.
type FileEvent struct {
	From     PublicKey `json:"from"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	MIME     string    `json:"mime"`
	Data     []byte    `json:"-"`
}

// LinkOpenedEvent records a link reaching the open state.
type LinkOpenedEvent struct {
	Peer        PublicKey   `json:"peer"`
	Fingerprint Fingerprint `json:"fingerprint"`
}

// LinkClosedEvent records an open link closing.
type LinkClosedEvent struct {
	Peer PublicKey `json:"peer"`
}

func (MessageEvent) Kind() EventKind    { return EventMessage }
func (FileEvent) Kind() EventKind       { return EventFile }
func (LinkOpenedEvent) Kind() EventKind { return EventLinkOpened }
func (LinkClosedEvent) Kind() EventKind { return EventLinkClosed }

// HistoryEntry is a HistoryEvent stamped at local append time.
type HistoryEntry struct {
	Seq       uint64       `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	Event     HistoryEvent `json:"event"`
}
