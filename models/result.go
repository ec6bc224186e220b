package models

import "time"

// ExtractionResult is the outcome of checking one product URL. Exactly one
// of Price and Error is set.
type ExtractionResult struct {
	URL            string    `json:"url"`
	Price          *float64  `json:"price"`
	ProductName    string    `json:"product_name,omitempty"`
	Site           string    `json:"site"`
	Currency       string    `json:"currency"`
	CurrencySymbol string    `json:"currency_symbol"`
	Error          string    `json:"error,omitempty"`
	ErrorCode      string    `json:"error_code,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`

	// Tier names the extraction step that produced Price, e.g. "selector"
	// or "frequency".
	Tier string `json:"tier,omitempty"`

	// Attempts is how many fetch attempts were needed.
	Attempts int `json:"attempts,omitempty"`
}

// OK reports whether a price was found.
func (r *ExtractionResult) OK() bool { return r.Price != nil }

// Err returns the failure as a PriceError, or nil on success.
func (r *ExtractionResult) Err() *PriceError {
	if r.OK() {
		return nil
	}
	code := r.ErrorCode
	if code == "" {
		code = ErrCodeInternal
	}
	return NewPriceError(code, r.Error, nil)
}
