package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Engine runs a single configured backend and enforces the error policy:
// only ErrDocumentRead escapes, every other failure becomes an empty,
// zero-confidence Document.
type Engine struct {
	backend Backend
	logger  *slog.Logger
}

// NewEngine creates an Engine for backend. Availability is checked once here.
func NewEngine(backend Backend, logger *slog.Logger) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("extraction backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !backend.Available() {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backend.Name())
	}
	return &Engine{backend: backend, logger: logger}, nil
}

// Backend returns the name of the configured backend.
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// Extract reads the document at path with the configured backend.
func (e *Engine) Extract(ctx context.Context, path string) (Document, error) {
	start := time.Now()
	name := e.backend.Name()
	e.logger.Debug("starting extraction", "path", path, "backend", name)

	doc, err := e.backend.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, ErrDocumentRead) {
			e.logger.Error("document unreadable", "path", path, "backend", name, "error", err)
			return Document{Backend: name, Duration: time.Since(start)}, err
		}
		e.logger.Warn("extraction failed, returning empty result", "path", path, "backend", name, "error", err)
		return Document{Backend: name, Duration: time.Since(start)}, nil
	}

	doc.Backend = name
	doc.Confidence = clamp01(doc.Confidence)
	doc.Duration = time.Since(start)
	if strings.TrimSpace(strings.Join(doc.Pages, "")) == "" {
		e.logger.Warn("no text extracted", "path", path, "backend", name, "pages", doc.PageCount())
	}
	e.logger.Info("extraction complete",
		"path", path,
		"backend", name,
		"pages", doc.PageCount(),
		"confidence", doc.Confidence,
		"duration_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

// ExtractText is Extract reduced to the (text, confidence) pair.
func (e *Engine) ExtractText(ctx context.Context, path string) (string, float64, error) {
	doc, err := e.Extract(ctx, path)
	if err != nil {
		return "", 0, err
	}
	return doc.Text(), doc.Confidence, nil
}
