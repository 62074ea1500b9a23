package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"chatbackup/pkg/config"
	"chatbackup/pkg/errors"
	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGraph serves a chat as a chain of message pages plus the images
// the messages reference
type mockGraph struct {
	server *httptest.Server
	base   string

	// pages[i] is served for page i; an empty slice is an empty page
	pages [][]map[string]interface{}
	// failImage makes the given image path answer with 500
	failImage string

	mu         sync.Mutex
	pageHits   []string
	imageHits  map[string]int
	authHeader string
}

func newMockGraph(t *testing.T) *mockGraph {
	t.Helper()
	m := &mockGraph{imageHits: map[string]int{}}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	m.base = m.server.URL + "/beta"
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockGraph) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authHeader = r.Header.Get("Authorization")

	switch {
	case r.URL.Path == "/beta/me":
		w.Write([]byte(`{"id":"U1","displayName":"Alice"}`))

	case r.URL.Path == "/beta/me/chats/chat-1/messages":
		m.writePage(w, 0)

	case r.URL.Path == "/beta/me/chats/chat-1/messages/page":
		var n int
		fmt.Sscanf(r.URL.Query().Get("n"), "%d", &n)
		m.writePage(w, n)

	case strings.HasPrefix(r.URL.Path, "/beta/img/"):
		m.imageHits[r.URL.Path]++
		if r.URL.Path == m.failImage {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("bytes of " + r.URL.Path))

	default:
		http.NotFound(w, r)
	}
}

func (m *mockGraph) writePage(w http.ResponseWriter, n int) {
	m.pageHits = append(m.pageHits, fmt.Sprint(n))
	resp := map[string]interface{}{
		"value": m.pages[n],
	}
	if n+1 < len(m.pages) {
		resp["@odata.nextLink"] = fmt.Sprintf("%s/me/chats/chat-1/messages/page?n=%d", m.base, n+1)
	}
	json.NewEncoder(w).Encode(resp)
}

func (m *mockGraph) image(name string) string {
	return m.base + "/img/" + name
}

func (m *mockGraph) hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.imageHits[path]
}

func msg(id, userID, name, contentType, content string) map[string]interface{} {
	return map[string]interface{}{
		"id":              id,
		"createdDateTime": "2021-03-01T10:00:0" + id + "Z",
		"from": map[string]interface{}{
			"user": map[string]string{"id": userID, "displayName": name},
		},
		"body": map[string]string{"contentType": contentType, "content": content},
	}
}

func newTestBackup(t *testing.T, m *mockGraph, log logger.Logger) *Backup {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Graph.BaseURL = m.base
	cfg.Graph.Token = "token-123"

	client := graph.NewClient(&cfg.Graph, nil, log)
	b, err := New(cfg, client, log)
	require.NoError(t, err)
	return b
}

func TestRunEndToEnd(t *testing.T) {
	m := newMockGraph(t)
	photo := m.image("users/abc/photo")
	hosted := m.image("chats/19:x@thread.v2/hostedContents/aW1n=/$value")

	m.pages = [][]map[string]interface{}{
		{
			msg("6", "U1", "Alice", "html", `<p>again</p><img src="`+photo+`">`),
			msg("5", "U2", "Bob", "text", `not an image: `+hosted),
		},
		{}, // empty page with a continuation link
		{
			msg("4", "U2", "Bob", "html", `<img src="`+hosted+`"><img src="`+photo+`">`),
			msg("3", "U1", "Alice", "html", `<img src="`+photo+`">`),
		},
	}

	target := filepath.Join(t.TempDir(), "out", "team")
	b := newTestBackup(t, m, logger.NewNopLogger())

	summary, err := b.Run(context.Background(), "chat-1", target)
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-123", m.authHeader)
	assert.Equal(t, []string{"0", "1", "2"}, m.pageHits)

	// pagination
	assert.Equal(t, PageSummary{Fetched: 3, Written: 2, Messages: 4}, summary.Pages)
	assert.FileExists(t, filepath.Join(target, "messages-00000.json"))
	assert.NoFileExists(t, filepath.Join(target, "messages-00001.json"))
	assert.FileExists(t, filepath.Join(target, "messages-00002.json"))

	// images: each distinct URL once, text bodies ignored
	assert.Equal(t, 1, m.hits("/beta/img/users/abc/photo"))
	assert.Equal(t, 1, m.hits("/beta/img/chats/19:x@thread.v2/hostedContents/aW1n=/$value"))
	assert.Equal(t, 2, summary.Images.Downloaded)
	assert.Equal(t, 4, summary.Images.References)

	store, err := storage.OpenManager(target)
	require.NoError(t, err)
	index, err := store.ReadImageIndex()
	require.NoError(t, err)
	assert.Len(t, index, 2)
	for url, name := range index {
		data, err := os.ReadFile(store.Path(name))
		require.NoError(t, err, "image for %s", url)
		assert.Equal(t, "bytes of "+strings.TrimPrefix(url, m.server.URL), string(data))
	}
	// pages are scanned in ascending ordinal, so page 0's photo is numbered first
	assert.Equal(t, "image-00000", index[photo])
	assert.Equal(t, "image-00001", index[hosted])

	// transcript
	assert.Equal(t, 4, summary.Transcript.Rendered)
	f, err := os.Open(store.Path(storage.TranscriptFile))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)

	msgs := doc.Find(".message")
	require.Equal(t, 4, msgs.Length())
	var times []string
	msgs.Each(func(_ int, s *goquery.Selection) {
		times = append(times, s.Find(".message-time").Text())
	})
	assert.Equal(t, []string{
		"2021-03-01T10:00:03Z",
		"2021-03-01T10:00:04Z",
		"2021-03-01T10:00:05Z",
		"2021-03-01T10:00:06Z",
	}, times)
	assert.True(t, msgs.Eq(0).HasClass("message-right"))
	assert.True(t, msgs.Eq(1).HasClass("message-left"))

	var srcs []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
	})
	assert.Equal(t, []string{"image-00000", "image-00001", "image-00000", "image-00000"}, srcs)

	// the text body keeps its URL verbatim
	assert.Contains(t, msgs.Eq(2).Find(".message-body").Text(), hosted)
}

func TestRunStopsWithoutNextLink(t *testing.T) {
	m := newMockGraph(t)
	m.pages = [][]map[string]interface{}{
		{msg("1", "U1", "Alice", "text", "only")},
	}

	target := t.TempDir()
	summary, err := newTestBackup(t, m, logger.NewNopLogger()).Run(context.Background(), "chat-1", target)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Pages.Fetched)
	assert.Equal(t, 0, summary.Images.Downloaded)

	data, err := os.ReadFile(filepath.Join(target, storage.ImageIndexFile))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestRunEmptyChat(t *testing.T) {
	m := newMockGraph(t)
	m.pages = [][]map[string]interface{}{{}}

	target := t.TempDir()
	summary, err := newTestBackup(t, m, logger.NewNopLogger()).Run(context.Background(), "chat-1", target)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Pages.Written)
	assert.Equal(t, 0, summary.Transcript.Rendered)
	assert.FileExists(t, filepath.Join(target, storage.TranscriptFile))
	assert.NoFileExists(t, filepath.Join(target, "messages-00000.json"))
}

func TestRunPageFailureAborts(t *testing.T) {
	m := newMockGraph(t)
	m.pages = [][]map[string]interface{}{
		{msg("2", "U1", "Alice", "text", "kept")},
	}

	target := t.TempDir()
	b := newTestBackup(t, m, logger.NewNopLogger())
	_, err := b.Run(context.Background(), "unknown-chat", target)

	require.Error(t, err)
	assert.ErrorContains(t, err, "retrieve messages")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.NoFileExists(t, filepath.Join(target, storage.TranscriptFile))
}

func TestRunImageFailureAborts(t *testing.T) {
	m := newMockGraph(t)
	good := m.image("good")
	bad := m.image("bad")
	m.failImage = "/beta/img/bad"
	m.pages = [][]map[string]interface{}{
		{msg("1", "U1", "Alice", "html", `<img src="`+good+`"><img src="`+bad+`">`)},
	}

	target := t.TempDir()
	_, err := newTestBackup(t, m, logger.NewNopLogger()).Run(context.Background(), "chat-1", target)

	require.Error(t, err)
	assert.ErrorContains(t, err, "harvest images")
	assert.True(t, errors.IsType(err, errors.ErrorTypeServerError))

	// pages and the completed image stay, the index is never written
	assert.FileExists(t, filepath.Join(target, "messages-00000.json"))
	assert.FileExists(t, filepath.Join(target, "image-00000"))
	assert.NoFileExists(t, filepath.Join(target, "image-00001"))
	assert.NoFileExists(t, filepath.Join(target, storage.ImageIndexFile))
	assert.NoFileExists(t, filepath.Join(target, storage.TranscriptFile))
}

func TestRunTargetNotCreatable(t *testing.T) {
	m := newMockGraph(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := newTestBackup(t, m, logger.NewNopLogger()).Run(context.Background(), "chat-1", filepath.Join(file, "target"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "initialize target")
	assert.Empty(t, m.pageHits)
}

func TestRunCanceled(t *testing.T) {
	m := newMockGraph(t)
	m.pages = [][]map[string]interface{}{{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBackup(t, m, logger.NewNopLogger()).Run(ctx, "chat-1", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderExistingBackup(t *testing.T) {
	m := newMockGraph(t)
	m.pages = [][]map[string]interface{}{
		{msg("1", "U2", "Bob", "text", "hello")},
	}
	target := t.TempDir()
	b := newTestBackup(t, m, logger.NewNopLogger())
	_, err := b.Run(context.Background(), "chat-1", target)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(target, storage.TranscriptFile)))

	summary, err := b.Render(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rendered)
	assert.FileExists(t, filepath.Join(target, storage.TranscriptFile))

	_, err = b.Render(context.Background(), filepath.Join(target, "missing"))
	assert.Error(t, err)
}

func TestPaginatorLogsProgress(t *testing.T) {
	m := newMockGraph(t)
	m.pages = [][]map[string]interface{}{
		{msg("2", "U1", "Alice", "text", "b")},
		{msg("1", "U1", "Alice", "text", "a")},
	}

	log := logger.NewTestLogger()
	client := graph.NewClient(&config.GraphConfig{BaseURL: m.base}, nil, logger.NewNopLogger())
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	summary, err := NewPaginator(client, log).Run(context.Background(), "chat-1", store)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Written)

	var files []interface{}
	for _, entry := range log.GetMessagesByLevel("INFO") {
		if entry.Message == "Retrieved page" {
			files = append(files, entry.Fields["file"])
		}
	}
	assert.Equal(t, []interface{}{"messages-00000.json", "messages-00001.json"}, files)
}
