package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	profile *graph.Profile
	err     error
}

func (f *fakeProfiles) FetchProfile(ctx context.Context) (*graph.Profile, error) {
	return f.profile, f.err
}

func viewer() *fakeProfiles {
	return &fakeProfiles{profile: &graph.Profile{ID: "U1", DisplayName: "Alice"}}
}

func userMessage(id, userID, name, contentType, content string) map[string]interface{} {
	return map[string]interface{}{
		"id":                   id,
		"createdDateTime":      "2021-03-0" + id + "T10:00:00Z",
		"lastModifiedDateTime": "",
		"from": map[string]interface{}{
			"user":        map[string]string{"id": userID, "displayName": name},
			"application": nil,
		},
		"body": map[string]string{"contentType": contentType, "content": content},
	}
}

func botMessage(id, name, content string) map[string]interface{} {
	return map[string]interface{}{
		"id":              id,
		"createdDateTime": "2021-03-0" + id + "T10:00:00Z",
		"from": map[string]interface{}{
			"user":        nil,
			"application": map[string]string{"id": "A1", "displayName": name},
		},
		"body": map[string]string{"contentType": "html", "content": content},
	}
}

func writePage(t *testing.T, store *storage.Manager, ordinal int, messages ...map[string]interface{}) {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		require.NoError(t, err)
		raw = append(raw, data)
	}
	_, err := store.WritePage(ordinal, raw)
	require.NoError(t, err)
}

func newStore(t *testing.T) *storage.Manager {
	t.Helper()
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	return store
}

func newRenderer(t *testing.T, profiles ProfileSource, opts Options, log logger.Logger) *Renderer {
	t.Helper()
	matcher, err := graph.NewImageMatcher(graph.DefaultBaseURL)
	require.NoError(t, err)
	if opts.Stylesheet == "" {
		opts.Stylesheet = "../../messages.css"
	}
	return NewRenderer(profiles, matcher, opts, log)
}

func readTranscript(t *testing.T, store *storage.Manager) (string, *goquery.Document) {
	t.Helper()
	data, err := os.ReadFile(store.Path(storage.TranscriptFile))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	return string(data), doc
}

func TestRenderSelfTextMessage(t *testing.T) {
	store := newStore(t)
	writePage(t, store, 0, userMessage("1", "U1", "Alice", "text", "Hi <there>"))

	summary, err := newRenderer(t, viewer(), Options{Title: "Chat"}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rendered)

	raw, doc := readTranscript(t, store)
	assert.Contains(t, raw, `<div class="message-body">Hi &lt;there&gt;</div>`)

	msg := doc.Find(".message")
	require.Equal(t, 1, msg.Length())
	assert.True(t, msg.HasClass("message-right"))
	assert.Equal(t, "Alice", msg.Find(".message-sender").Text())
	assert.Equal(t, "2021-03-01T10:00:00Z", msg.Find(".message-time").Text())
	assert.Equal(t, "Hi <there>", msg.Find(".message-body").Text())
}

func TestRenderOtherUserAndBot(t *testing.T) {
	store := newStore(t)
	writePage(t, store, 0,
		botMessage("3", "Build Bot", "<p>build passed</p>"),
		userMessage("2", "U2", "Bob", "html", "<p><b>hello</b></p>"),
	)

	summary, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rendered)
	assert.Equal(t, 1, summary.Bots)

	raw, doc := readTranscript(t, store)
	assert.Contains(t, raw, "<p><b>hello</b></p>")
	assert.NotContains(t, raw, "build passed")

	msgs := doc.Find(".message")
	require.Equal(t, 2, msgs.Length())

	bob := msgs.Eq(0)
	assert.True(t, bob.HasClass("message-left"))
	assert.Equal(t, "hello", bob.Find(".message-body b").Text())

	bot := msgs.Eq(1)
	assert.True(t, bot.HasClass("message-left"))
	assert.Equal(t, "Build Bot", bot.Find(".message-sender").Text())
	assert.Equal(t, "2021-03-03T10:00:00Z", bot.Find(".message-time").Text())
	assert.Equal(t, 0, bot.Find(".message-body").Length())
}

func TestRenderChronologicalOrder(t *testing.T) {
	store := newStore(t)
	// page 0 is newest, each page lists newest first
	writePage(t, store, 0,
		userMessage("4", "U1", "Alice", "text", "four"),
		userMessage("3", "U2", "Bob", "text", "three"),
	)
	writePage(t, store, 1,
		userMessage("2", "U2", "Bob", "text", "two"),
		userMessage("1", "U1", "Alice", "text", "one"),
	)

	summary, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Pages)

	_, doc := readTranscript(t, store)
	var bodies []string
	doc.Find(".message-body").Each(func(_ int, s *goquery.Selection) {
		bodies = append(bodies, s.Text())
	})
	assert.Equal(t, []string{"one", "two", "three", "four"}, bodies)
}

func TestRenderOrdersPagesNumerically(t *testing.T) {
	store := newStore(t)
	writePage(t, store, 2, userMessage("1", "U1", "Alice", "text", "oldest"))
	writePage(t, store, 10, userMessage("0", "U1", "Alice", "text", "older than all"))
	writePage(t, store, 0, userMessage("9", "U1", "Alice", "text", "newest"))

	_, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)

	_, doc := readTranscript(t, store)
	var bodies []string
	doc.Find(".message-body").Each(func(_ int, s *goquery.Selection) {
		bodies = append(bodies, s.Text())
	})
	assert.Equal(t, []string{"older than all", "oldest", "newest"}, bodies)
}

func TestRenderSkipsUnknownSender(t *testing.T) {
	store := newStore(t)
	writePage(t, store, 0,
		userMessage("2", "U2", "Bob", "text", "kept"),
		map[string]interface{}{"id": "system-1", "from": nil, "body": map[string]string{"contentType": "text", "content": "joined"}},
	)
	log := logger.NewTestLogger()

	summary, err := newRenderer(t, viewer(), Options{}, log).Render(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rendered)
	assert.Equal(t, 1, summary.Skipped)

	warnings := log.GetMessagesByLevel("WARN")
	var skipped []logger.LogMessage
	for _, w := range warnings {
		if w.Message == "Skipping message with unrecognized sender" {
			skipped = append(skipped, w)
		}
	}
	require.Len(t, skipped, 1)
	assert.Equal(t, "system-1", skipped[0].Fields["id"])

	raw, _ := readTranscript(t, store)
	assert.NotContains(t, raw, "joined")
}

func TestRenderSubstitutesImages(t *testing.T) {
	store := newStore(t)
	img := "https://graph.microsoft.com/beta/users/abc/photo"
	writePage(t, store, 0,
		userMessage("2", "U2", "Bob", "html", `<img src="`+img+`">`),
		userMessage("1", "U1", "Alice", "html", `<p>look</p><img src="`+img+`">`),
	)
	require.NoError(t, store.WriteImageIndex(storage.ImageIndex{img: "image-00000"}))

	summary, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Images)

	raw, doc := readTranscript(t, store)
	assert.NotContains(t, raw, img)

	var srcs []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
	})
	assert.Equal(t, []string{"image-00000", "image-00000"}, srcs)
}

func TestRenderWithoutImageIndex(t *testing.T) {
	img := "https://graph.microsoft.com/beta/users/abc/photo"

	tests := []struct {
		name  string
		setup func(t *testing.T, store *storage.Manager)
	}{
		{name: "missing", setup: func(t *testing.T, store *storage.Manager) {}},
		{name: "corrupt", setup: func(t *testing.T, store *storage.Manager) {
			require.NoError(t, os.WriteFile(store.Path(storage.ImageIndexFile), []byte("{broken"), 0644))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			writePage(t, store, 0, userMessage("1", "U2", "Bob", "html", `<img src="`+img+`">`))
			tt.setup(t, store)
			log := logger.NewTestLogger()

			summary, err := newRenderer(t, viewer(), Options{}, log).Render(context.Background(), store)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Rendered)
			assert.Equal(t, 0, summary.Images)
			assert.NotEmpty(t, log.GetMessagesByLevel("WARN"))

			_, doc := readTranscript(t, store)
			src, _ := doc.Find("img").Attr("src")
			assert.Equal(t, img, src)
		})
	}
}

func TestRenderSkeleton(t *testing.T) {
	store := newStore(t)

	_, err := newRenderer(t, viewer(), Options{Title: "Team <chat>"}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)

	raw, doc := readTranscript(t, store)
	assert.True(t, strings.HasPrefix(raw, "<!DOCTYPE html>"))
	href, ok := doc.Find(`link[rel="stylesheet"]`).Attr("href")
	require.True(t, ok)
	assert.Equal(t, "../../messages.css", href)
	assert.Equal(t, "Team <chat>", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find(".messages").Length())
	assert.Equal(t, 0, doc.Find(".message").Length())
}

func TestRenderOverwritesTranscript(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(storage.TranscriptFile), []byte(strings.Repeat("stale ", 10000)), 0644))
	writePage(t, store, 0, userMessage("1", "U1", "Alice", "text", "fresh"))

	_, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)

	raw, _ := readTranscript(t, store)
	assert.NotContains(t, raw, "stale")
	assert.Contains(t, raw, "fresh")
}

func TestRenderEscapesSenderName(t *testing.T) {
	store := newStore(t)
	writePage(t, store, 0, userMessage("1", "U2", "<script>x</script>", "text", "hi"))

	_, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)

	raw, doc := readTranscript(t, store)
	assert.NotContains(t, raw, "<script>")
	assert.Equal(t, "<script>x</script>", doc.Find(".message-sender").Text())
}

func TestRenderSanitizeHTML(t *testing.T) {
	store := newStore(t)
	img := "https://graph.microsoft.com/beta/users/abc/photo"
	writePage(t, store, 0, userMessage("1", "U2", "Bob", "html",
		`<p onclick="steal()">hi</p><script>alert(1)</script><img src="`+img+`">`))
	require.NoError(t, store.WriteImageIndex(storage.ImageIndex{img: "image-00000"}))

	_, err := newRenderer(t, viewer(), Options{SanitizeHTML: true}, logger.NewNopLogger()).Render(context.Background(), store)
	require.NoError(t, err)

	raw, doc := readTranscript(t, store)
	assert.NotContains(t, raw, "onclick")
	assert.NotContains(t, raw, "alert(1)")
	assert.Equal(t, "hi", doc.Find(".message-body p").Text())
	src, _ := doc.Find(".message-body img").Attr("src")
	assert.Equal(t, "image-00000", src)
}

func TestRenderProfileFailureIsFatal(t *testing.T) {
	store := newStore(t)
	writePage(t, store, 0, userMessage("1", "U1", "Alice", "text", "hi"))

	_, err := newRenderer(t, &fakeProfiles{err: errors.New("401")}, Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to resolve profile")

	_, statErr := os.Stat(store.Path(storage.TranscriptFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderCorruptPageIsFatal(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(storage.PageFileName(0)), []byte("[{"), 0644))

	_, err := newRenderer(t, viewer(), Options{}, logger.NewNopLogger()).Render(context.Background(), store)
	assert.ErrorContains(t, err, "failed to parse page")
}
