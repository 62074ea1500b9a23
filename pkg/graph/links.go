package graph

import (
	"fmt"
	"regexp"
)

// imagePathChars are the characters allowed after the base URL in an inline
// image reference
const imagePathChars = `[\w\-.~%!$*+,;=:@/]+`

// ImageMatcher finds references to Graph-hosted images in message markup
type ImageMatcher struct {
	re *regexp.Regexp
}

// NewImageMatcher builds a matcher for images served below baseURL
func NewImageMatcher(baseURL string) (*ImageMatcher, error) {
	base := TrimBaseURL(baseURL)
	if base == "" {
		return nil, fmt.Errorf("image matcher needs a base URL")
	}

	re, err := regexp.Compile(regexp.QuoteMeta(base) + "/" + imagePathChars)
	if err != nil {
		return nil, fmt.Errorf("failed to compile image pattern: %w", err)
	}
	return &ImageMatcher{re: re}, nil
}

// Find returns every image URL in content, in order of appearance.
// Repeated URLs are returned each time they occur.
func (m *ImageMatcher) Find(content string) []string {
	return m.re.FindAllString(content, -1)
}

// Replace substitutes every image URL found in index with its local
// filename. URLs missing from index are left as they are.
func (m *ImageMatcher) Replace(content string, index map[string]string) string {
	if len(index) == 0 {
		return content
	}
	return m.re.ReplaceAllStringFunc(content, func(url string) string {
		if local, ok := index[url]; ok {
			return local
		}
		return url
	})
}
