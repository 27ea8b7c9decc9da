package broker

import (
	"github.com/coder/websocket"

	"github.com/adamgoose/age-chat/internal/domain"
)

// ConnectPath is the websocket endpoint clients register on.
const ConnectPath = "/v1/connect"

// MaxFrameSize bounds a single frame, base64 payload included.
const MaxFrameSize = 64 << 20

// frameOverhead covers the JSON fields around a data frame's payload.
const frameOverhead = 4 << 10

// MaxPayload is the largest data payload whose frame fits MaxFrameSize.
const MaxPayload = (MaxFrameSize - frameOverhead) / 4 * 3

// StatusAddressInUse closes a connection whose address is already
// registered.
const StatusAddressInUse websocket.StatusCode = 4409

// Error strings carried in close frames.
const (
	ReasonPeerUnavailable = "peer unavailable"
	ReasonDuplicateLink   = "duplicate link"
)

// FrameType names a broker frame.
type FrameType string

const (
	FrameOpen   FrameType = "open"
	FrameDial   FrameType = "dial"
	FrameAccept FrameType = "accept"
	FrameData   FrameType = "data"
	FrameClose  FrameType = "close"
)

// Frame is one message on a broker websocket.
type Frame struct {
	Type    FrameType        `json:"type"`
	Link    domain.LinkID    `json:"link,omitempty"`
	To      domain.PublicKey `json:"to,omitempty"`
	From    domain.PublicKey `json:"from,omitempty"`
	Payload []byte           `json:"payload,omitempty"`
	Error   string           `json:"error,omitempty"`
}
