package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Ollama sends each rendered page to a local Ollama vision model.
// Recommended models for page transcription:
//   - llava:1.6 (best balance of accuracy and speed)
//   - qwen2-vl:7b (good OCR capabilities)
//   - llava-phi3 (smaller, faster, but less accurate)
type Ollama struct {
	baseURL   string
	model     string
	client    *http.Client
	available bool
	pipeline  rasterPipeline
}

// NewOllama creates an Ollama backend and probes the server once. An
// unreachable server leaves the backend unavailable.
func NewOllama(ctx context.Context, cfg Config, baseURL, modelName string) *Ollama {
	cfg = cfg.withDefaults()
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	o := &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second, // vision models are slow
		},
	}
	o.pipeline = rasterPipeline{name: BackendOllama, cfg: cfg, recognizer: o}

	if err := o.ping(ctx); err != nil {
		cfg.Logger.Warn("ollama backend disabled", "url", o.baseURL, "error", err)
		return o
	}
	o.available = true
	return o
}

func (o *Ollama) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama API status %d", resp.StatusCode)
	}
	return nil
}

func (o *Ollama) Name() string    { return BackendOllama }
func (o *Ollama) Available() bool { return o.available }

// Extract returns ErrBackendUnavailable when the server was unreachable at
// construction; otherwise it never returns an error.
func (o *Ollama) Extract(ctx context.Context, path string) (Document, error) {
	if !o.available {
		return Document{Backend: BackendOllama}, ErrBackendUnavailable
	}
	return o.pipeline.extract(ctx, path), nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Recognize transcribes one page image.
func (o *Ollama) Recognize(ctx context.Context, imagePath string) (PageResult, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return PageResult{}, fmt.Errorf("reading page image: %w", err)
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading receipts and invoices. You transcribe printed text exactly.",
			},
			{
				Role:    "user",
				Content: pageTranscriptionPrompt,
				Images:  []string{base64.StdEncoding.EncodeToString(data)},
			},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return PageResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return PageResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return PageResult{}, fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return PageResult{}, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return PageResult{}, fmt.Errorf("decoding response: %w", err)
	}
	return parseVisionReply(chatResp.Message.Content), nil
}
