package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageMatcherFind(t *testing.T) {
	m, err := NewImageMatcher(DefaultBaseURL)
	require.NoError(t, err)

	content := `<p>look</p><img src="https://graph.microsoft.com/beta/users/abc/photo" alt="">` +
		`<img src="https://graph.microsoft.com/beta/chats/19:x@thread.v2/messages/1/hostedContents/aW1n=/$value">` +
		`<img src="https://graph.microsoft.com/beta/users/abc/photo">` +
		`<img src="https://example.com/beta/users/abc/photo">`

	assert.Equal(t, []string{
		"https://graph.microsoft.com/beta/users/abc/photo",
		"https://graph.microsoft.com/beta/chats/19:x@thread.v2/messages/1/hostedContents/aW1n=/$value",
		"https://graph.microsoft.com/beta/users/abc/photo",
	}, m.Find(content))
}

func TestImageMatcherFindNothing(t *testing.T) {
	m, err := NewImageMatcher(DefaultBaseURL)
	require.NoError(t, err)

	assert.Empty(t, m.Find("plain text without links"))
	// bare base URL has no path
	assert.Empty(t, m.Find(`<a href="https://graph.microsoft.com/beta">x</a>`))
}

func TestImageMatcherQuotesBaseURL(t *testing.T) {
	m, err := NewImageMatcher("http://127.0.0.1:1234/beta")
	require.NoError(t, err)

	// dots in the base URL are literal
	assert.Empty(t, m.Find("http://127x0.0.1:1234/beta/users/abc/photo"))
	assert.Equal(t, []string{"http://127.0.0.1:1234/beta/users/abc/photo"},
		m.Find(`src="http://127.0.0.1:1234/beta/users/abc/photo"`))
}

func TestImageMatcherReplace(t *testing.T) {
	m, err := NewImageMatcher(DefaultBaseURL)
	require.NoError(t, err)

	index := map[string]string{
		"https://graph.microsoft.com/beta/users/abc/photo": "image-00000",
	}
	content := `<img src="https://graph.microsoft.com/beta/users/abc/photo">` +
		`<img src="https://graph.microsoft.com/beta/users/other/photo">` +
		`<img src="https://graph.microsoft.com/beta/users/abc/photo">`

	assert.Equal(t,
		`<img src="image-00000">`+
			`<img src="https://graph.microsoft.com/beta/users/other/photo">`+
			`<img src="image-00000">`,
		m.Replace(content, index))

	assert.Equal(t, content, m.Replace(content, nil))
}

func TestNewImageMatcherRequiresBase(t *testing.T) {
	_, err := NewImageMatcher("")
	assert.Error(t, err)
}
