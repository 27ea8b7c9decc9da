package session

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/adamgoose/age-chat/internal/crypto"
	"github.com/adamgoose/age-chat/internal/domain"
)

// AnonymousFlag is the invite query flag that suppresses identity persistence.
const AnonymousFlag = "anonymous"

var (
	// ErrInvalidInvite is returned when an invite segment is not an age public key.
	ErrInvalidInvite = errors.New("invite does not carry a valid public key")
)

// Invite is the parsed form of an invite link.
type Invite struct {
	// Segment is the first path segment, normally the inviter's public key.
	Segment string
	// Ephemeral is set when the link carries the anonymous flag.
	Ephemeral bool
}

// ParseInvite accepts a full invite URL, a bare path ("/age1..."), or a bare
// public key. The empty string yields an empty Invite.
func ParseInvite(raw string) (Invite, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Invite{}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Invite{}, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}
	inv := Invite{Segment: firstSegment(u.Path)}
	if u.RawQuery != "" {
		q := u.Query()
		_, inv.Ephemeral = q[AnonymousFlag]
	}
	return inv, nil
}

// ResolveInitialRecipient derives the recipient from an invite segment.
// ok is false when the segment is empty. The ephemeral flag does not change
// the recipient; it only governs identity persistence.
func ResolveInitialRecipient(segment string, ephemeral bool) (domain.PublicKey, bool, error) {
	_ = ephemeral
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "", false, nil
	}
	pub := domain.PublicKey(segment)
	if _, err := crypto.ParseRecipient(pub); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}
	return pub, true, nil
}

// InviteLink builds the link a peer opens to reach pub.
func InviteLink(base string, pub domain.PublicKey, ephemeral bool) string {
	link := strings.TrimRight(base, "/") + "/" + url.PathEscape(pub.String())
	if ephemeral {
		link += "?" + AnonymousFlag
	}
	return link
}

func firstSegment(p string) string {
	p = strings.TrimLeft(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if s, err := url.PathUnescape(p); err == nil {
		return s
	}
	return p
}
