package backup

import (
	"context"
	"fmt"

	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"
)

// HarvestSummary describes a finished image harvest
type HarvestSummary struct {
	References int
	Downloaded int
	Bytes      int64
}

// Harvester downloads the images referenced by stored messages
type Harvester struct {
	client  GraphClient
	matcher *graph.ImageMatcher
	logger  logger.Logger
}

// NewHarvester creates a Harvester that downloads URLs found by matcher
func NewHarvester(client GraphClient, matcher *graph.ImageMatcher, log logger.Logger) *Harvester {
	return &Harvester{client: client, matcher: matcher, logger: log}
}

// Run scans every page in store, downloads each distinct image once and
// writes the image index. The index is only written when every download
// succeeded.
func (h *Harvester) Run(ctx context.Context, store *storage.Manager) (storage.ImageIndex, *HarvestSummary, error) {
	pages, err := store.PageFiles()
	if err != nil {
		return nil, nil, err
	}

	index := storage.ImageIndex{}
	summary := &HarvestSummary{}

	for _, page := range pages {
		messages, err := store.ReadPage(page.Name)
		if err != nil {
			return nil, summary, err
		}

		for i := range messages {
			if !messages[i].Body.IsHTML() {
				continue
			}
			for _, url := range h.matcher.Find(messages[i].Body.Content) {
				summary.References++
				if _, seen := index[url]; seen {
					continue
				}
				if err := h.download(ctx, store, index, url, summary); err != nil {
					return nil, summary, err
				}
			}
		}
	}

	if err := store.WriteImageIndex(index); err != nil {
		return nil, summary, err
	}

	h.logger.InfoWithFields("Image index written", map[string]interface{}{
		"images":     len(index),
		"references": summary.References,
	})
	return index, summary, nil
}

// download stores url under the next image name and records it in index
// once the file is complete
func (h *Harvester) download(ctx context.Context, store *storage.Manager, index storage.ImageIndex, url string, summary *HarvestSummary) error {
	name := index.NextFileName()
	h.logger.DebugWithFields("Downloading image", map[string]interface{}{
		"url":  url,
		"file": name,
	})

	body, err := h.client.OpenImage(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer body.Close()

	written, err := store.SaveImage(body, name)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", url, err)
	}

	index[url] = name
	summary.Downloaded++
	summary.Bytes += written

	h.logger.InfoWithFields("Image downloaded", map[string]interface{}{
		"file":  name,
		"bytes": written,
	})
	return nil
}
