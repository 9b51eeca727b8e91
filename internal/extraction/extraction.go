package extraction

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
)

// Backend names accepted by the CLI and recorded on every Document.
const (
	BackendEmbedded  = "embedded"
	BackendLayout    = "layout"
	BackendTesseract = "tesseract"
	BackendVision    = "vision"
	BackendOllama    = "ollama"
)

var (
	// ErrDocumentRead is returned when a document cannot be opened at all.
	// It is the only error Engine.Extract surfaces to callers.
	ErrDocumentRead = errors.New("document cannot be read")

	// ErrBackendUnavailable is returned for a backend whose runtime
	// dependencies (credentials, service endpoint) are missing.
	ErrBackendUnavailable = errors.New("extraction backend unavailable")
)

// Document is the text pulled out of one document by one backend.
type Document struct {
	Pages      []string      `json:"pages"`
	Confidence float64       `json:"confidence"` // 0..1
	Backend    string        `json:"backend"`
	Duration   time.Duration `json:"duration"`
}

// Text joins the pages using the page boundary markers.
func (d Document) Text() string {
	return JoinPages(d.Pages)
}

// PageCount returns the number of pages the backend produced.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// Backend turns a document on disk into text plus a confidence score
type Backend interface {
	// Name identifies the backend (one of the Backend* constants)
	Name() string
	// Available reports whether the backend can run in this environment
	Available() bool
	// Extract reads the document at path
	Extract(ctx context.Context, path string) (Document, error)
}

// Config carries the settings shared by all backends.
type Config struct {
	Logger      *slog.Logger
	TempDir     string   // parent for per-call render directories, "" = os.TempDir()
	DPI         int      // rasterization DPI, default 300
	Languages   []string // OCR language hints, default eng
	PageWorkers int      // concurrent page recognitions, default 4
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = 4
	}
	return c
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
