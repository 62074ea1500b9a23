package transcript

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSource resolves the signed-in user
type ProfileSource interface {
	FetchProfile(ctx context.Context) (*graph.Profile, error)
}

// Options controls the rendered document
type Options struct {
	Title        string
	Stylesheet   string
	SanitizeHTML bool
}

// Summary describes a finished render
type Summary struct {
	Pages    int
	Rendered int
	Bots     int
	Skipped  int
	Images   int
}

// Renderer builds the HTML transcript of a backup
type Renderer struct {
	profiles ProfileSource
	matcher  *graph.ImageMatcher
	opts     Options
	policy   *bluemonday.Policy
	logger   logger.Logger
}

// NewRenderer creates a Renderer. matcher locates image URLs to substitute
// with local file names.
func NewRenderer(profiles ProfileSource, matcher *graph.ImageMatcher, opts Options, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.GetLogger()
	}

	r := &Renderer{
		profiles: profiles,
		matcher:  matcher,
		opts:     opts,
		logger:   log,
	}
	if opts.SanitizeHTML {
		r.policy = bluemonday.UGCPolicy()
	}
	return r
}

// Render writes index.html into the target directory, oldest message first
func (r *Renderer) Render(ctx context.Context, store *storage.Manager) (*Summary, error) {
	profile, err := r.profiles.FetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	r.logger.InfoWithFields("Rendering transcript", map[string]interface{}{
		"viewer": profile.DisplayName,
		"target": store.GetOutputDir(),
	})

	index := r.loadImageIndex(store)

	pages, err := store.PageFiles()
	if err != nil {
		return nil, err
	}

	f, err := store.CreateTranscript()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Pages: len(pages), Images: len(index)}
	w := bufio.NewWriter(f)
	renderErr := r.write(ctx, w, store, pages, profile.ID, index, summary)
	if renderErr == nil {
		renderErr = w.Flush()
	}
	if closeErr := f.Close(); renderErr == nil && closeErr != nil {
		renderErr = fmt.Errorf("failed to close transcript: %w", closeErr)
	}
	if renderErr != nil {
		return nil, renderErr
	}

	r.logger.InfoWithFields("Transcript written", map[string]interface{}{
		"file":     store.Path(storage.TranscriptFile),
		"rendered": summary.Rendered,
		"skipped":  summary.Skipped,
	})
	return summary, nil
}

// loadImageIndex returns the image index, or an empty one when it is
// missing or unreadable
func (r *Renderer) loadImageIndex(store *storage.Manager) storage.ImageIndex {
	index, err := store.ReadImageIndex()
	if err == nil {
		return index
	}

	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("No image index found, images will link to their remote location")
	} else {
		r.logger.WithError(err).Warn("Image index is unreadable, images will link to their remote location")
	}
	return storage.ImageIndex{}
}

func (r *Renderer) write(ctx context.Context, w io.Writer, store *storage.Manager, pages []storage.PageFile, viewerID string, index storage.ImageIndex, summary *Summary) error {
	if err := transcriptTemplate.ExecuteTemplate(w, "header", pageData{
		Title:      r.opts.Title,
		Stylesheet: r.opts.Stylesheet,
	}); err != nil {
		return fmt.Errorf("failed to write transcript header: %w", err)
	}

	// pages are stored newest first and each page lists newest first
	for i := len(pages) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}

		messages, err := store.ReadPage(pages[i].Name)
		if err != nil {
			return err
		}

		for j := len(messages) - 1; j >= 0; j-- {
			msg := &messages[j]
			kind := Classify(msg, viewerID)
			if kind == SenderUnknown {
				r.logger.WarnWithFields("Skipping message with unrecognized sender", map[string]interface{}{
					"id":   msg.ID,
					"page": pages[i].Name,
				})
				summary.Skipped++
				continue
			}

			if err := transcriptTemplate.ExecuteTemplate(w, "message", r.block(msg, kind, index)); err != nil {
				return fmt.Errorf("failed to write message %s: %w", msg.ID, err)
			}
			summary.Rendered++
			if kind == SenderBot {
				summary.Bots++
			}
		}
	}

	if err := transcriptTemplate.ExecuteTemplate(w, "footer", nil); err != nil {
		return fmt.Errorf("failed to write transcript footer: %w", err)
	}
	return nil
}

func (r *Renderer) block(msg *graph.Message, kind SenderKind, index storage.ImageIndex) messageData {
	data := messageData{
		Class:     kind.Class(),
		Timestamp: msg.Timestamp(),
		Sender:    SenderName(msg),
		HasBody:   kind.ShowsBody(),
	}
	if data.HasBody {
		data.Body = r.body(msg.Body, index)
	}
	return data
}

// body returns the markup of a message body. HTML bodies are trusted as
// delivered by the API unless sanitizing is enabled.
func (r *Renderer) body(body graph.Body, index storage.ImageIndex) template.HTML {
	if !body.IsHTML() {
		return template.HTML(EscapeText(body.Content))
	}

	content := body.Content
	if r.matcher != nil {
		content = r.matcher.Replace(content, index)
	}
	if r.policy != nil {
		content = r.policy.Sanitize(content)
	}
	return template.HTML(content)
}
