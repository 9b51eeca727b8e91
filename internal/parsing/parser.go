package parsing

import (
	"log/slog"
	"strings"
	"time"
)

// Parser infers receipt fields from extracted text. It holds no state
// between calls and is safe for concurrent use.
type Parser struct {
	itemMode ItemMode
	logger   *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithItemMode selects the line-item strategy.
func WithItemMode(m ItemMode) Option {
	return func(p *Parser) { p.itemMode = m }
}

// WithLogger sets the logger used to report extractor panics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{itemMode: ItemsStructured}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

var defaultParser = New()

// Parse runs the default Parser over text.
func Parse(text string) Receipt {
	return defaultParser.Parse(text)
}

// Parse is total: any input, including "", yields a Receipt. Each field is
// extracted independently and a failure in one leaves only that field at its
// default.
func (p *Parser) Parse(text string) Receipt {
	lines := normalizeLines(text)
	body := strings.Join(lines, "\n")

	r := Receipt{
		MerchantName:  guard(p, "merchant_name", "", func() string { return extractMerchant(lines) }),
		PurchasedAt:   guard(p, "purchased_at", (*time.Time)(nil), func() *time.Time { return extractDate(body) }),
		TotalAmount:   guard(p, "total_amount", 0.0, func() float64 { return extractTotal(body) }),
		Currency:      guard(p, "currency", Currency(""), func() Currency { return extractCurrency(body) }),
		TaxAmount:     guard(p, "tax_amount", 0.0, func() float64 { return extractTax(body) }),
		ReceiptNumber: guard(p, "receipt_number", "", func() string { return extractReceiptNumber(body) }),
		PaymentMethod: guard(p, "payment_method", "", func() string { return extractPaymentMethod(body) }),
		Items:         guard(p, "items", []LineItem{}, func() []LineItem { return p.items(lines) }),
	}
	return r
}

func (p *Parser) items(lines []string) []LineItem {
	if p.itemMode == ItemsPriceAnchored {
		return extractPriceAnchoredItems(lines)
	}
	return extractItems(lines)
}

// guard runs one field extractor, turning a panic into the field default.
func guard[T any](p *Parser, field string, def T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("field extractor panicked", "field", field, "panic", r)
			out = def
		}
	}()
	return fn()
}
