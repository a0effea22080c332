package domain

import "time"

// EventKind classifies a decoded platform update.
type EventKind int

const (
	// KindText is a free-text message relayed to the completion API.
	KindText EventKind = iota
	// KindStart is the /start greeting command.
	KindStart
)

// InboundEvent is one platform-delivered message, decoded from a webhook
// POST. It carries everything a handler needs; there is no per-user state
// beyond it, and it is discarded once handling completes.
type InboundEvent struct {
	ChatID     int64
	Sender     Sender
	Text       string
	Kind       EventKind
	ReceivedAt time.Time
}

// Sender identifies who wrote the message.
type Sender struct {
	DisplayName string
	Handle      string // optional, without the leading @
}

// Label renders the sender for audit records: "Full Name (@handle)".
func (s Sender) Label() string {
	if s.Handle == "" {
		return s.DisplayName
	}
	return s.DisplayName + " (@" + s.Handle + ")"
}

// Exchange is the full request/response pair for one handled event. The
// response text is always unchunked, even when delivery was split.
type Exchange struct {
	Sender   Sender
	Request  string
	Response string
	At       time.Time
}
