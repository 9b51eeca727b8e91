package parsing

import (
	"strconv"
	"strings"

	"github.com/zombor/receipt-extractor/internal/extraction"
)

// normalizeLines drops page markers and blank lines and trims the rest,
// keeping top-to-bottom order.
func normalizeLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || extraction.IsPageMarker(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

var amountReplacer = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	"\u00a0", "", // non-breaking space
)

// parseAmount converts a token like "$1,234.56" to a float64.
func parseAmount(s string) (float64, bool) {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// containsAny reports whether lower contains any of the keywords.
func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
