package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ItemMode selects the line-item extraction strategy.
type ItemMode int

const (
	// ItemsStructured matches "description qty price" and "description price"
	// line shapes. It is the default.
	ItemsStructured ItemMode = iota
	// ItemsPriceAnchored takes any line carrying a currency symbol and splits
	// it at the rightmost price token. It is coarser and more prone to false
	// positives.
	ItemsPriceAnchored
)

// String returns the flag spelling of the mode.
func (m ItemMode) String() string {
	if m == ItemsPriceAnchored {
		return "price-anchored"
	}
	return "structured"
}

// ParseItemMode maps a flag value to an ItemMode.
func ParseItemMode(s string) (ItemMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "structured":
		return ItemsStructured, true
	case "price-anchored", "price":
		return ItemsPriceAnchored, true
	}
	return ItemsStructured, false
}

var (
	itemWithQuantity = regexp.MustCompile(`^(.+?)\s+(\d+)\s+[$€£]?\s*(\d[\d,]*(?:\.\d+)?)$`)

	// The price must start a token: either after whitespace (optionally past
	// whole-number columns such as an item code) or right after a symbol.
	itemPriceOnly = regexp.MustCompile(`^([^\d$€£]+?)(?:\s+(?:\d+\s+)*[$€£]?|\s*[$€£])\s*(\d[\d,]*(?:\.\d+)?)$`)

	// metadataLine marks lines that describe the transaction rather than a
	// purchased item.
	metadataLine = regexp.MustCompile(`(?i)\b(?:date|time|receipt|card|ref|tkt)\b`)
)

// summaryKeywords mark totals lines that must never become items.
var summaryKeywords = []string{"total", "tax", "subtotal", "amount"}

// validDescription reports whether desc may label an item.
func validDescription(desc string) bool {
	if utf8.RuneCountInString(desc) <= 1 {
		return false
	}
	return !containsAny(strings.ToLower(desc), summaryKeywords)
}

// extractItems applies the quantity shape first, then the price-only shape,
// to every line. Items keep line order and are not merged.
func extractItems(lines []string) []LineItem {
	items := make([]LineItem, 0)
	for _, line := range lines {
		if metadataLine.MatchString(line) {
			continue
		}
		if item, ok := matchQuantityItem(line); ok {
			items = append(items, item)
			continue
		}
		if item, ok := matchPriceItem(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func matchQuantityItem(line string) (LineItem, bool) {
	m := itemWithQuantity.FindStringSubmatch(line)
	if m == nil {
		return LineItem{}, false
	}
	desc := strings.TrimSpace(m[1])
	if !validDescription(desc) {
		return LineItem{}, false
	}
	price, ok := parseAmount(m[3])
	if !ok {
		return LineItem{}, false
	}
	qty, err := strconv.ParseFloat(m[2], 64)
	if err != nil || qty <= 0 {
		qty = 1
	}
	return LineItem{Description: desc, Quantity: qty, UnitPrice: price, TotalPrice: price}, true
}

func matchPriceItem(line string) (LineItem, bool) {
	m := itemPriceOnly.FindStringSubmatch(line)
	if m == nil {
		return LineItem{}, false
	}
	desc := strings.TrimSpace(m[1])
	if !validDescription(desc) {
		return LineItem{}, false
	}
	price, ok := parseAmount(m[2])
	if !ok {
		return LineItem{}, false
	}
	return LineItem{Description: desc, Quantity: 1, UnitPrice: price, TotalPrice: price}, true
}

// extractPriceAnchoredItems is the coarse strategy: every line with a
// currency symbol whose rightmost price-like token parses becomes an item
// priced at that token with quantity 1.
func extractPriceAnchoredItems(lines []string) []LineItem {
	items := make([]LineItem, 0)
	for _, line := range lines {
		lower := strings.ToLower(line)
		if metadataLine.MatchString(line) {
			continue
		}
		if strings.Contains(lower, "total") || strings.Contains(lower, "amount") {
			continue
		}
		if !strings.ContainsAny(line, "$€£") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		var priceToken string
		for i := len(parts) - 1; i >= 0; i-- {
			if strings.ContainsAny(parts[i], "$€£") || isDecimal(parts[i]) {
				priceToken = parts[i]
				break
			}
		}
		if priceToken == "" {
			continue
		}
		price, err := strconv.ParseFloat(digitsAndDots(priceToken), 64)
		if err != nil {
			continue
		}
		desc := strings.TrimSpace(line[:strings.LastIndex(line, priceToken)])
		if !validDescription(desc) {
			continue
		}
		items = append(items, LineItem{Description: desc, Quantity: 1, UnitPrice: price, TotalPrice: price})
	}
	return items
}

// isDecimal reports whether s is digits with optional dots, e.g. "3.50".
func isDecimal(s string) bool {
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsAndDots(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
