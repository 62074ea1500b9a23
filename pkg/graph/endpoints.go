package graph

import (
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the Graph API root used for chats
	DefaultBaseURL = "https://graph.microsoft.com/beta"

	// ProfileEndpoint returns the signed-in user
	ProfileEndpoint = "/me"

	// ChatsEndpoint is the prefix of the signed-in user's chats
	ChatsEndpoint = "/me/chats"
)

// TrimBaseURL removes trailing slashes so endpoints can be appended directly
func TrimBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

// ProfileURL constructs the URL for fetching the signed-in user's profile
func ProfileURL(baseURL string) string {
	return TrimBaseURL(baseURL) + ProfileEndpoint
}

// MessagesURL constructs the URL of the first (most recent) page of a chat
func MessagesURL(baseURL, chatID string) string {
	return TrimBaseURL(baseURL) + ChatsEndpoint + "/" + url.PathEscape(chatID) + "/messages"
}
