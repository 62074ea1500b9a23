package backup

import (
	"context"
	"io"

	"chatbackup/pkg/graph"
)

// GraphClient defines the Graph API operations a backup needs
type GraphClient interface {
	BaseURL() string
	FetchMessages(ctx context.Context, url string) (*graph.MessagePage, error)
	FetchProfile(ctx context.Context) (*graph.Profile, error)
	OpenImage(ctx context.Context, url string) (io.ReadCloser, error)
}
