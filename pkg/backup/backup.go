package backup

import (
	"context"
	"fmt"
	"time"

	"chatbackup/pkg/config"
	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"
	"chatbackup/pkg/transcript"
)

// Summary describes a finished backup run
type Summary struct {
	Target     string
	Pages      PageSummary
	Images     HarvestSummary
	Transcript transcript.Summary
	Duration   time.Duration
}

// Backup runs the backup pipeline: prepare the target directory, store
// message pages, harvest images, then render the transcript. Each step
// completes before the next starts and the first failure ends the run.
type Backup struct {
	paginator *Paginator
	harvester *Harvester
	renderer  *transcript.Renderer
	logger    logger.Logger
}

// New creates a Backup using client for all Graph API access
func New(cfg *config.Config, client GraphClient, log logger.Logger) (*Backup, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	matcher, err := graph.NewImageMatcher(client.BaseURL())
	if err != nil {
		return nil, err
	}

	return &Backup{
		paginator: NewPaginator(client, log),
		harvester: NewHarvester(client, matcher, log),
		renderer: transcript.NewRenderer(client, matcher, transcript.Options{
			Title:        cfg.Render.Title,
			Stylesheet:   cfg.Output.Stylesheet,
			SanitizeHTML: cfg.Render.SanitizeHTML,
		}, log),
		logger: log,
	}, nil
}

// Run backs up the chat chatID into the target directory
func (b *Backup) Run(ctx context.Context, chatID, target string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Target: target}
	log := b.logger.WithField("chat", chatID)

	logger.LogStep(log, "initialize", map[string]interface{}{"target": target})
	store, err := storage.NewManager(target)
	if err != nil {
		return nil, fmt.Errorf("initialize target: %w", err)
	}

	logger.LogStep(log, "paginate", nil)
	pages, err := b.paginator.Run(ctx, chatID, store)
	if err != nil {
		return nil, fmt.Errorf("retrieve messages: %w", err)
	}
	summary.Pages = *pages
	logger.LogStepDone(log, "paginate", map[string]interface{}{
		"fetched":  pages.Fetched,
		"written":  pages.Written,
		"messages": pages.Messages,
	})

	logger.LogStep(log, "harvest", nil)
	_, images, err := b.harvester.Run(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("harvest images: %w", err)
	}
	summary.Images = *images
	logger.LogStepDone(log, "harvest", map[string]interface{}{
		"downloaded": images.Downloaded,
		"bytes":      images.Bytes,
	})

	logger.LogStep(log, "render", nil)
	rendered, err := b.renderer.Render(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}
	summary.Transcript = *rendered
	summary.Duration = time.Since(start)
	logger.LogStepDone(log, "render", map[string]interface{}{
		"rendered": rendered.Rendered,
		"skipped":  rendered.Skipped,
		"duration": summary.Duration,
	})

	return summary, nil
}

// Render re-renders the transcript of an existing backup directory
func (b *Backup) Render(ctx context.Context, target string) (*transcript.Summary, error) {
	store, err := storage.OpenManager(target)
	if err != nil {
		return nil, err
	}

	summary, err := b.renderer.Render(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}
	return summary, nil
}
