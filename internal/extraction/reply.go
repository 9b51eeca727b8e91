package extraction

import (
	"encoding/json"
	"strings"
)

// visionFallbackConfidence is used when a vision service returns text
// without block-level confidence.
const visionFallbackConfidence = 0.9

// pageTranscriptionPrompt is shared by all vision providers.
const pageTranscriptionPrompt = `You are transcribing one page of a scanned receipt or invoice. Read every piece of text on the page in reading order, top to bottom.

Return ONLY valid JSON in this exact format:
{
  "blocks": [
    {"text": "line or block of text exactly as printed", "confidence": 0.0}
  ]
}

Important:
- Keep each printed line on its own line inside "text"; keep amounts, dates and symbols exactly as printed
- "confidence" is your certainty for that block between 0 and 1
- Do not summarize, correct or translate anything
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

type visionBlock struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

type visionReply struct {
	Blocks []visionBlock `json:"blocks"`
}

// parseVisionReply turns a vision model reply into page text and confidence.
// Structured block replies are averaged over blocks that carry a confidence;
// anything else is taken as plain text at the fallback confidence.
func parseVisionReply(reply string) PageResult {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return PageResult{}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return PageResult{Text: text, Confidence: visionFallbackConfidence}
	}

	var r visionReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil || len(r.Blocks) == 0 {
		return PageResult{Text: text, Confidence: visionFallbackConfidence}
	}

	lines := make([]string, 0, len(r.Blocks))
	var sum float64
	var scored int
	for _, b := range r.Blocks {
		if t := strings.TrimSpace(b.Text); t != "" {
			lines = append(lines, t)
		}
		if b.Confidence != nil && *b.Confidence >= 0 {
			c := *b.Confidence
			if c > 1 {
				c /= 100 // some models answer in percent
			}
			sum += c
			scored++
		}
	}

	page := PageResult{Text: strings.Join(lines, "\n")}
	switch {
	case page.Text == "":
		page.Confidence = 0
	case scored == 0:
		page.Confidence = visionFallbackConfidence
	default:
		page.Confidence = clamp01(sum / float64(scored))
	}
	return page
}
