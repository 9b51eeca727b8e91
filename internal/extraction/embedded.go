package extraction

import (
	"context"
	"fmt"
	"log/slog"
)

// Embedded reads the text layer already present in a PDF. It does not
// rasterize and is the only backend that fails hard: an unreadable document
// yields ErrDocumentRead.
type Embedded struct {
	logger *slog.Logger
}

// NewEmbedded creates an Embedded backend.
func NewEmbedded(cfg Config) *Embedded {
	cfg = cfg.withDefaults()
	return &Embedded{logger: cfg.Logger}
}

func (e *Embedded) Name() string    { return BackendEmbedded }
func (e *Embedded) Available() bool { return true }

// Extract returns every page's text layer with confidence 1.0.
func (e *Embedded) Extract(ctx context.Context, path string) (Document, error) {
	r, c, err := openPDF(path)
	if err != nil {
		return Document{Backend: BackendEmbedded}, fmt.Errorf("%w: opening %s: %v", ErrDocumentRead, path, err)
	}
	defer c.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Document{Backend: BackendEmbedded}, err
		}
		text, err := plainPageText(r, i)
		if err != nil {
			e.logger.Warn("page text unreadable", "path", path, "page", i, "error", err)
		}
		pages = append(pages, text)
	}

	return Document{
		Pages:      pages,
		Confidence: 1.0,
		Backend:    BackendEmbedded,
	}, nil
}
