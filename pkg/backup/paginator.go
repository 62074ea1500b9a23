package backup

import (
	"context"
	"fmt"

	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"
)

// PageSummary describes a finished pagination
type PageSummary struct {
	Fetched  int
	Written  int
	Messages int
}

// Paginator walks a chat's message feed and stores every page
type Paginator struct {
	client GraphClient
	logger logger.Logger
}

// NewPaginator creates a Paginator
func NewPaginator(client GraphClient, log logger.Logger) *Paginator {
	return &Paginator{client: client, logger: log}
}

// Run fetches all pages of the chat, newest first
func (p *Paginator) Run(ctx context.Context, chatID string, store *storage.Manager) (*PageSummary, error) {
	return p.Walk(ctx, graph.MessagesURL(p.client.BaseURL(), chatID), store)
}

// Walk fetches pages starting at url until a page has no continuation
// link. Every fetched page consumes an ordinal, so empty pages leave a gap
// in the file sequence. Pages are written as soon as they arrive.
func (p *Paginator) Walk(ctx context.Context, url string, store *storage.Manager) (*PageSummary, error) {
	summary := &PageSummary{}

	for ordinal := 0; ; ordinal++ {
		fields := map[string]interface{}{
			"page": ordinal,
		}
		p.logger.DebugWithFields("Retrieving page", fields)

		page, err := p.client.FetchMessages(ctx, url)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch page %d: %w", ordinal, err)
		}
		summary.Fetched++

		fields["messages"] = len(page.Value)
		if page.Count != nil {
			fields["count"] = *page.Count
		}

		if len(page.Value) > 0 {
			name, err := store.WritePage(ordinal, page.Value)
			if err != nil {
				return summary, err
			}
			summary.Written++
			summary.Messages += len(page.Value)
			fields["file"] = name
		}
		p.logger.InfoWithFields("Retrieved page", fields)

		if !page.HasNext() {
			return summary, nil
		}
		url = page.NextLink
	}
}
