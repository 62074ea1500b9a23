// Package graph is a small client for the parts of the Microsoft Graph API
// that a chat backup needs: the paginated chat message feed, the signed-in
// user's profile, and the images embedded in message bodies.
//
// All requests carry the configured bearer token and are paced by a
// ratelimit.Limiter. Failures are returned as *errors.Error values typed by
// HTTP status. Nothing is retried.
//
// Usage:
//
//	client := graph.NewClient(&cfg.Graph, limiter, log)
//	page, err := client.FetchMessages(ctx, graph.MessagesURL(client.BaseURL(), chatID))
//	for page.HasNext() {
//	    page, err = client.FetchMessages(ctx, page.NextLink)
//	}
package graph
