package extraction

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"
)

// PageResult is the recognition output for one page image.
type PageResult struct {
	Text       string
	Confidence float64 // 0..1
}

// Recognizer turns one rendered page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (PageResult, error)
}

// rasterPipeline is the render → recognize flow shared by the OCR and vision
// backends.
type rasterPipeline struct {
	name       string
	cfg        Config
	recognizer Recognizer
}

// extract never returns an error; failures are logged and produce an empty,
// zero-confidence Document.
func (p rasterPipeline) extract(ctx context.Context, path string) Document {
	logger := p.cfg.Logger
	empty := Document{Backend: p.name}

	dir, err := os.MkdirTemp(p.cfg.TempDir, "receipt-pages-*")
	if err != nil {
		logger.Error("creating render directory", "backend", p.name, "error", err)
		return empty
	}
	defer removeAll(logger, dir)

	paths, err := renderPages(ctx, path, dir, p.cfg.DPI, logger)
	if err != nil {
		logger.Error("rendering document", "backend", p.name, "path", path, "error", err)
		return empty
	}

	results := p.recognizePages(ctx, paths)
	return assemble(p.name, results)
}

// recognizePages runs the recognizer over every page concurrently. The
// results slice is indexed by page, so output order follows page order
// whatever the completion order.
func (p rasterPipeline) recognizePages(ctx context.Context, paths []string) []PageResult {
	results := make([]PageResult, len(paths))

	var g errgroup.Group
	g.SetLimit(p.cfg.PageWorkers)
	for i, imgPath := range paths {
		if imgPath == "" {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := p.recognizer.Recognize(ctx, imgPath)
			if err != nil {
				p.cfg.Logger.Warn("page recognition failed", "backend", p.name, "page", i+1, "error", err)
				return nil
			}
			res.Confidence = clamp01(res.Confidence)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// assemble averages page confidences across all pages, counting pages that
// produced no score as zero.
func assemble(name string, results []PageResult) Document {
	doc := Document{Backend: name, Pages: make([]string, len(results))}
	if len(results) == 0 {
		return doc
	}
	var sum float64
	for i, r := range results {
		doc.Pages[i] = r.Text
		sum += r.Confidence
	}
	doc.Confidence = clamp01(sum / float64(len(results)))
	return doc
}
