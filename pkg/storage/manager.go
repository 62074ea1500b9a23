package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"chatbackup/pkg/graph"
)

const (
	// ImageIndexFile holds the URL to local filename mapping
	ImageIndexFile = "images.json"

	// TranscriptFile is the rendered HTML transcript
	TranscriptFile = "index.html"
)

var pageFilePattern = regexp.MustCompile(`^messages-(\d{5,})\.json$`)

// PageFileName returns the file name of the page with the given ordinal
func PageFileName(ordinal int) string {
	return fmt.Sprintf("messages-%05d.json", ordinal)
}

// ImageFileName returns the file name of the nth downloaded image
func ImageFileName(n int) string {
	return fmt.Sprintf("image-%05d", n)
}

// PageFile is a message page stored in the target directory
type PageFile struct {
	Ordinal int
	Name    string
}

// ImageIndex maps remote image URLs to local file names
type ImageIndex map[string]string

// NextFileName returns the file name the next new image is stored under
func (idx ImageIndex) NextFileName() string {
	return ImageFileName(len(idx))
}

// Manager owns a backup's target directory
type Manager struct {
	outputDir string
}

// NewManager creates the target directory and any missing parents. It is
// safe to call on an existing directory.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// OpenManager attaches to an existing target directory without creating it
func OpenManager(outputDir string) (*Manager, error) {
	info, err := os.Stat(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", outputDir)
	}
	return &Manager{outputDir: outputDir}, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Path returns the full path of a file in the target directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// WritePage writes one page of messages, indented by two spaces, and
// returns the file name used
func (m *Manager) WritePage(ordinal int, messages []json.RawMessage) (string, error) {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode page %d: %w", ordinal, err)
	}

	name := PageFileName(ordinal)
	if err := m.writeFile(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// PageFiles lists the page files in ascending ordinal order
func (m *Manager) PageFiles() ([]PageFile, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var pages []PageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pageFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		ordinal, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		pages = append(pages, PageFile{Ordinal: ordinal, Name: entry.Name()})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Ordinal < pages[j].Ordinal
	})
	return pages, nil
}

// ReadPage decodes the messages stored in a page file
func (m *Manager) ReadPage(name string) ([]graph.Message, error) {
	data, err := os.ReadFile(m.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}

	var messages []graph.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
	}
	return messages, nil
}

// SaveImage streams r into the named file and returns the bytes written.
// The file only appears under its final name once the stream is complete.
func (m *Manager) SaveImage(r io.Reader, name string) (int64, error) {
	filename := m.Path(name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to save image data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}

// WriteImageIndex stores the image index as compact JSON
func (m *Manager) WriteImageIndex(index ImageIndex) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if index == nil {
		index = ImageIndex{}
	}
	if err := enc.Encode(index); err != nil {
		return fmt.Errorf("failed to encode image index: %w", err)
	}

	return m.writeFile(ImageIndexFile, bytes.TrimRight(buf.Bytes(), "\n"))
}

// ReadImageIndex loads the image index. A missing file yields an error
// matching fs.ErrNotExist.
func (m *Manager) ReadImageIndex() (ImageIndex, error) {
	data, err := os.ReadFile(m.Path(ImageIndexFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read image index: %w", err)
	}

	var index ImageIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse image index: %w", err)
	}
	if index == nil {
		index = ImageIndex{}
	}
	return index, nil
}

// CreateTranscript truncates or creates the HTML transcript for writing
func (m *Manager) CreateTranscript() (*os.File, error) {
	f, err := os.Create(m.Path(TranscriptFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript: %w", err)
	}
	return f, nil
}

// writeFile writes data to a temporary file and renames it into place
func (m *Manager) writeFile(name string, data []byte) error {
	filename := m.Path(name)
	tempFile := filename + ".tmp"

	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
