package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// contentGenerator is the part of genai.GenerativeModel used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Vision sends each rendered page to Google Gemini for transcription. It is
// only available when an API key is configured and the client was created.
type Vision struct {
	client   *genai.Client
	model    contentGenerator
	timeout  time.Duration
	pipeline rasterPipeline
}

// NewVision creates a Gemini-backed Vision backend. Missing credentials or
// a client error leave the backend unavailable instead of failing.
func NewVision(ctx context.Context, cfg Config, apiKey, modelName string) *Vision {
	cfg = cfg.withDefaults()
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	v := &Vision{timeout: 60 * time.Second}
	v.pipeline = rasterPipeline{name: BackendVision, cfg: cfg, recognizer: v}

	if apiKey == "" {
		cfg.Logger.Info("vision backend disabled: no gemini api key")
		return v
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		cfg.Logger.Warn("vision backend disabled: creating gemini client", "error", err)
		return v
	}
	v.client = client
	v.model = client.GenerativeModel(modelName)
	return v
}

func newVisionWithModel(cfg Config, model contentGenerator) *Vision {
	v := &Vision{model: model, timeout: 60 * time.Second}
	v.pipeline = rasterPipeline{name: BackendVision, cfg: cfg.withDefaults(), recognizer: v}
	return v
}

func (v *Vision) Name() string    { return BackendVision }
func (v *Vision) Available() bool { return v.model != nil }

// Extract returns ErrBackendUnavailable when no client is configured;
// otherwise it never returns an error.
func (v *Vision) Extract(ctx context.Context, path string) (Document, error) {
	if !v.Available() {
		return Document{Backend: BackendVision}, ErrBackendUnavailable
	}
	return v.pipeline.extract(ctx, path), nil
}

// Recognize transcribes one page image.
func (v *Vision) Recognize(ctx context.Context, imagePath string) (PageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return PageResult{}, fmt.Errorf("reading page image: %w", err)
	}

	// genai.ImageData expects just the format suffix, not the full MIME type
	resp, err := v.model.GenerateContent(ctx,
		genai.ImageData("png", data),
		genai.Text(pageTranscriptionPrompt),
	)
	if err != nil {
		return PageResult{}, fmt.Errorf("generating content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return PageResult{}, fmt.Errorf("no response from gemini")
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			reply.WriteString(string(text))
		}
	}
	return parseVisionReply(reply.String()), nil
}

// Close closes the Gemini client
func (v *Vision) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
