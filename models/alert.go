package models

import "time"

// Alert statuses.
const (
	AlertActive    = "active"
	AlertTriggered = "triggered"
)

// Alert asks to be notified once a product drops to TargetPrice.
type Alert struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	URL          string    `json:"url"`
	TargetPrice  float64   `json:"target_price"`
	Site         string    `json:"site"`
	ProductName  string    `json:"product_name,omitempty"`
	CurrentPrice *float64  `json:"current_price"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reached reports whether the current price is at or below the target.
func (a *Alert) Reached() bool {
	return a.CurrentPrice != nil && *a.CurrentPrice <= a.TargetPrice
}

// PricePoint is one observed price for an alert.
type PricePoint struct {
	AlertID    int64     `json:"alert_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	Site       string    `json:"site"`
	RecordedAt time.Time `json:"recorded_at"`
}
