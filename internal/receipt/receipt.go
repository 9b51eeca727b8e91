package receipt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-extractor/internal/parsing"
)

// Item is a stored line item. Prices are in cents.
type Item struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   int64   `json:"unit_price"`
	TotalPrice  int64   `json:"total_price"`
}

// Receipt is a processed receipt document with the fields parsed from it
type Receipt struct {
	ID            string     `json:"id"`
	FileName      string     `json:"file_name"`
	FilePath      string     `json:"file_path"` // relative to the storage root
	Processed     bool       `json:"processed"`
	MerchantName  string     `json:"merchant_name"`
	PurchasedAt   *time.Time `json:"purchased_at,omitempty"`
	TotalAmount   int64      `json:"total_amount"` // Amount in cents
	TaxAmount     int64      `json:"tax_amount"`   // Amount in cents
	Currency      string     `json:"currency,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Items         []Item     `json:"items"`
	OCRText       string     `json:"ocr_text"`
	Confidence    float64    `json:"confidence"`
	Backend       string     `json:"backend"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// toCents converts a parsed amount to whole cents, rounding half away from zero.
func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// applyParsed copies the parsed fields onto r.
func (r *Receipt) applyParsed(p parsing.Receipt) {
	r.MerchantName = p.MerchantName
	r.PurchasedAt = p.PurchasedAt
	r.TotalAmount = toCents(p.TotalAmount)
	r.TaxAmount = toCents(p.TaxAmount)
	r.Currency = string(p.Currency)
	r.ReceiptNumber = p.ReceiptNumber
	r.PaymentMethod = p.PaymentMethod
	r.Items = make([]Item, 0, len(p.Items))
	for _, it := range p.Items {
		r.Items = append(r.Items, Item{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   toCents(it.UnitPrice),
			TotalPrice:  toCents(it.TotalPrice),
		})
	}
}
