package parsing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// merchantScanLines is how many leading lines may hold the merchant name.
const merchantScanLines = 5

var merchantExcluded = []string{"date", "time", "receipt", "total", "amount"}

func extractMerchant(lines []string) string {
	for i := 0; i < len(lines) && i < merchantScanLines; i++ {
		line := lines[i]
		if utf8.RuneCountInString(line) <= 3 {
			continue
		}
		if containsAny(strings.ToLower(line), merchantExcluded) {
			continue
		}
		return line
	}
	return ""
}

// amountToken matches a number such as 1,234.56 or 12.
const amountToken = `(\d[\d,]*(?:\.\d+)?)`

// totalPatterns are tried in priority order; the first pattern with any
// match wins and its largest value is taken.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s*:?\s*[$€£]?\s*` + amountToken),
	regexp.MustCompile(`(?i)amount\s*:?\s*[$€£]?\s*` + amountToken),
	regexp.MustCompile(`\$\s*` + amountToken),
	regexp.MustCompile(amountToken + `\s*\$`),
}

func extractTotal(text string) float64 {
	for _, re := range totalPatterns {
		matches := re.FindAllStringSubmatch(text, -1)
		found := false
		var best float64
		for _, m := range matches {
			v, ok := parseAmount(m[1])
			if !ok {
				continue
			}
			if !found || v > best {
				best = v
				found = true
			}
		}
		if found {
			return best
		}
	}
	return 0
}

// taxPatterns are tried in priority order; the first match's value wins.
var taxPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tax\s*:?\s*[$€£]?\s*` + amountToken),
	regexp.MustCompile(`(?i)vat\s*:?\s*[$€£]?\s*` + amountToken),
	regexp.MustCompile(`(?i)sales\s+tax\s*:?\s*[$€£]?\s*` + amountToken),
	regexp.MustCompile(`(?i)gst\s*:?\s*[$€£]?\s*` + amountToken),
	regexp.MustCompile(`(?i)hst\s*:?\s*[$€£]?\s*` + amountToken),
}

func extractTax(text string) float64 {
	for _, re := range taxPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseAmount(m[1]); ok {
				return v
			}
		}
	}
	return 0
}

var currencySymbols = []struct {
	symbol   string
	currency Currency
}{
	{"$", USD},
	{"€", EUR},
	{"£", GBP},
}

func extractCurrency(text string) Currency {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			return c.currency
		}
	}
	return ""
}

// receiptToken captures an identifier carrying at least one digit, so prose
// such as "No refunds" is not read as a number.
const receiptToken = `\s*[:#]?\s*([A-Za-z0-9\-]*\d[A-Za-z0-9\-]*)`

var receiptNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)receipt\s*(?:number\b|no\b\.?|#)` + receiptToken),
	regexp.MustCompile(`(?i)\b(?:number\b|no\b\.?)` + receiptToken),
	regexp.MustCompile(`(?i)transaction\s*(?:no\b\.?|id\b|#)` + receiptToken),
	regexp.MustCompile(`(?i)order\s*(?:no\b\.?|id\b|#)` + receiptToken),
}

func extractReceiptNumber(text string) string {
	for _, re := range receiptNumberPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// paymentMethods is scanned in order; the first keyword found anywhere in
// the text decides the label.
var paymentMethods = []struct {
	keyword string
	label   string
}{
	{"credit", "Credit Card"},
	{"debit", "Debit Card"},
	{"visa", "Visa"},
	{"mastercard", "Mastercard"},
	{"amex", "American Express"},
	{"discover", "Discover"},
	{"cash", "Cash"},
	{"check", "Check"},
	{"cheque", "Cheque"},
	{"paypal", "PayPal"},
	{"apple pay", "Apple Pay"},
	{"google pay", "Google Pay"},
}

func extractPaymentMethod(text string) string {
	lower := strings.ToLower(text)
	for _, p := range paymentMethods {
		if strings.Contains(lower, p.keyword) {
			return p.label
		}
	}
	return ""
}
