package transcript

import (
	"html"

	"chatbackup/pkg/graph"
)

// SenderKind classifies who sent a message relative to the viewer
type SenderKind int

const (
	// SenderUnknown has neither a user nor an application identity
	SenderUnknown SenderKind = iota
	// SenderSelf is the viewer
	SenderSelf
	// SenderOther is any other human user
	SenderOther
	// SenderBot is an application
	SenderBot
)

// CSS classes for message alignment
const (
	ClassRight = "message-right"
	ClassLeft  = "message-left"
)

// Classify determines the sender kind of msg for the viewer with viewerID.
// A user identity takes precedence over an application identity.
func Classify(msg *graph.Message, viewerID string) SenderKind {
	if user := msg.User(); user != nil {
		if user.ID == viewerID {
			return SenderSelf
		}
		return SenderOther
	}
	if msg.Application() != nil {
		return SenderBot
	}
	return SenderUnknown
}

// Class returns the alignment class for the kind
func (k SenderKind) Class() string {
	if k == SenderSelf {
		return ClassRight
	}
	return ClassLeft
}

// ShowsBody reports whether messages of this kind render their body
func (k SenderKind) ShowsBody() bool {
	return k == SenderSelf || k == SenderOther
}

func (k SenderKind) String() string {
	switch k {
	case SenderSelf:
		return "self"
	case SenderOther:
		return "other"
	case SenderBot:
		return "bot"
	default:
		return "unknown"
	}
}

// SenderName returns the display name of whoever sent msg
func SenderName(msg *graph.Message) string {
	if user := msg.User(); user != nil {
		return user.DisplayName
	}
	if app := msg.Application(); app != nil {
		return app.DisplayName
	}
	return ""
}

// EscapeText escapes the five HTML reserved characters & < > " '.
// It is not idempotent: escaped input is escaped again.
func EscapeText(text string) string {
	return html.EscapeString(text)
}
