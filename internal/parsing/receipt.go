package parsing

import "time"

// Currency is one of the currencies recognized by symbol
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// LineItem is a single purchased line on a receipt.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Receipt holds the fields inferred from receipt text. Zero values mean the
// field could not be determined; PurchasedAt is nil when no date was found.
type Receipt struct {
	MerchantName  string     `json:"merchant_name"`
	PurchasedAt   *time.Time `json:"purchased_at"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      Currency   `json:"currency,omitempty"`
	TaxAmount     float64    `json:"tax_amount"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Items         []LineItem `json:"items"`
}
