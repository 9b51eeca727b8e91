package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract rasterizes each page and runs local OCR over it. Page confidence
// is the mean of Tesseract's per-word confidences, ignoring words that report
// none; document confidence is the mean over pages.
type Tesseract struct {
	pipeline rasterPipeline
}

// NewTesseract creates a Tesseract backend.
func NewTesseract(cfg Config) *Tesseract {
	cfg = cfg.withDefaults()
	rec := &tesseractRecognizer{
		languages:     cfg.Languages,
		dpi:           cfg.DPI,
		clientFactory: gosseract.NewClient,
	}
	return newTesseractWithRecognizer(cfg, rec)
}

func newTesseractWithRecognizer(cfg Config, rec Recognizer) *Tesseract {
	return &Tesseract{pipeline: rasterPipeline{name: BackendTesseract, cfg: cfg.withDefaults(), recognizer: rec}}
}

func (t *Tesseract) Name() string    { return BackendTesseract }
func (t *Tesseract) Available() bool { return true }

// Extract never returns an error; OCR failures yield an empty Document.
func (t *Tesseract) Extract(ctx context.Context, path string) (Document, error) {
	return t.pipeline.extract(ctx, path), nil
}

type tesseractRecognizer struct {
	languages     []string
	dpi           int
	clientFactory func() *gosseract.Client
}

func (r *tesseractRecognizer) Recognize(ctx context.Context, imagePath string) (PageResult, error) {
	if err := ctx.Err(); err != nil {
		return PageResult{}, err
	}
	c := r.clientFactory()
	defer c.Close()

	if len(r.languages) > 0 {
		if err := c.SetLanguage(r.languages...); err != nil {
			return PageResult{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if r.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(r.dpi)); err != nil {
			return PageResult{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return PageResult{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return PageResult{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return PageResult{Text: strings.TrimSpace(text)}, nil
	}
	confs := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		confs = append(confs, b.Confidence)
	}
	return PageResult{
		Text:       strings.TrimSpace(text),
		Confidence: meanWordConfidence(confs),
	}, nil
}

// meanWordConfidence averages Tesseract word confidences (0..100) into 0..1.
// Negative values mean "no confidence" and are skipped.
func meanWordConfidence(confs []float64) float64 {
	var sum float64
	var n int
	for _, c := range confs {
		if c < 0 {
			continue
		}
		sum += c
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n) / 100.0)
}
