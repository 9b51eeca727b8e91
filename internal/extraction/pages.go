package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

var pageMarkerRe = regexp.MustCompile(`^--- PAGE (\d+) ---$`)

// PageMarker returns the sentinel line that opens page n (1-indexed).
func PageMarker(n int) string {
	return fmt.Sprintf("--- PAGE %d ---", n)
}

// IsPageMarker reports whether line is a page boundary sentinel.
func IsPageMarker(line string) bool {
	return pageMarkerRe.MatchString(strings.TrimSpace(line))
}

// JoinPages concatenates page texts, each preceded by its marker line.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, page := range pages {
		b.WriteString(PageMarker(i + 1))
		b.WriteString("\n")
		b.WriteString(page)
		b.WriteString("\n\n")
	}
	return b.String()
}

// SplitPages is the inverse of JoinPages. Text before the first marker is
// discarded; text without any marker is returned as a single page.
func SplitPages(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	var (
		pages   []string
		current []string
		seen    bool
	)
	flush := func() {
		if seen {
			pages = append(pages, strings.TrimRight(strings.Join(current, "\n"), "\n"))
		}
		current = current[:0]
	}
	for _, line := range lines {
		if IsPageMarker(line) {
			flush()
			seen = true
			continue
		}
		current = append(current, line)
	}
	if !seen {
		return []string{strings.TrimSpace(text)}
	}
	flush()
	return pages
}
