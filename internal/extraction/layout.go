package extraction

import (
	"context"
	"log/slog"
	"strings"
)

// layoutConfidence is reported whenever the layout pass finds any text.
const layoutConfidence = 0.95

// Layout extracts text row by row, keeping column structure better than the
// raw text layer. It never fails: problems produce an empty Document.
type Layout struct {
	logger *slog.Logger
}

// NewLayout creates a Layout backend.
func NewLayout(cfg Config) *Layout {
	cfg = cfg.withDefaults()
	return &Layout{logger: cfg.Logger}
}

func (l *Layout) Name() string    { return BackendLayout }
func (l *Layout) Available() bool { return true }

// Extract returns the laid-out text of every page.
func (l *Layout) Extract(ctx context.Context, path string) (Document, error) {
	empty := Document{Backend: BackendLayout}

	r, c, err := openPDF(path)
	if err != nil {
		l.logger.Warn("layout extraction could not open document", "path", path, "error", err)
		return empty, nil
	}
	defer c.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	found := false
	for i := 1; i <= n; i++ {
		if ctx.Err() != nil {
			l.logger.Warn("layout extraction cancelled", "path", path, "error", ctx.Err())
			return empty, nil
		}
		text, err := layoutPageText(r, i)
		if err != nil {
			l.logger.Warn("layout extraction failed", "path", path, "page", i, "error", err)
			return empty, nil
		}
		if strings.TrimSpace(text) != "" {
			found = true
		}
		pages = append(pages, text)
	}

	if !found {
		return Document{Pages: pages, Backend: BackendLayout}, nil
	}
	return Document{Pages: pages, Confidence: layoutConfidence, Backend: BackendLayout}, nil
}
