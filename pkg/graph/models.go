package graph

import (
	"encoding/json"
	"strings"
)

// MessagePage is one page of the chat messages collection. Messages are kept
// as raw JSON so page files preserve every field the API returned.
type MessagePage struct {
	Value    []json.RawMessage `json:"value"`
	Count    *int              `json:"@odata.count,omitempty"`
	NextLink string            `json:"@odata.nextLink,omitempty"`
}

// HasNext reports whether another page follows this one
func (p *MessagePage) HasNext() bool {
	return p.NextLink != ""
}

// Message is a single chat message
type Message struct {
	ID                   string `json:"id"`
	From                 *From  `json:"from"`
	CreatedDateTime      string `json:"createdDateTime"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
	Body                 Body   `json:"body"`
}

// Timestamp returns the last modification time, falling back to creation time
func (m *Message) Timestamp() string {
	if m.LastModifiedDateTime != "" {
		return m.LastModifiedDateTime
	}
	return m.CreatedDateTime
}

// User returns the human sender, or nil
func (m *Message) User() *Identity {
	if m.From == nil {
		return nil
	}
	return m.From.User
}

// Application returns the bot sender, or nil
func (m *Message) Application() *Identity {
	if m.From == nil {
		return nil
	}
	return m.From.Application
}

// From identifies the sender of a message
type From struct {
	User        *Identity `json:"user"`
	Application *Identity `json:"application"`
}

// Identity is a user or application reference
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Body content types
const (
	ContentTypeHTML = "html"
	ContentTypeText = "text"
)

// Body holds the message content
type Body struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// IsHTML reports whether the body holds markup
func (b Body) IsHTML() bool {
	return strings.EqualFold(b.ContentType, ContentTypeHTML)
}

// Profile is the signed-in user as returned by /me
type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
}

// errorResponse is the Graph error envelope
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
