package models

import "time"

// PriceResponse is the response for POST /api/v1/price.
type PriceResponse struct {
	// Success indicates whether a price was found.
	Success bool `json:"success"`

	// Result is the extraction outcome, present on success and on
	// extraction failures.
	Result *ExtractionResult `json:"result,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo provides a breakdown of operation durations.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// ClassifyResponse is the response for POST /api/v1/classify.
type ClassifyResponse struct {
	URL            string `json:"url"`
	Site           string `json:"site"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	Supported      bool   `json:"supported"`
}

// AlertResponse wraps a single alert.
type AlertResponse struct {
	Success bool         `json:"success"`
	Alert   *Alert       `json:"alert,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// AlertListResponse is the response for GET /api/v1/alerts.
type AlertListResponse struct {
	Success bool    `json:"success"`
	Alerts  []Alert `json:"alerts"`
}

// HistoryResponse is the response for GET /api/v1/alerts/:id/history.
type HistoryResponse struct {
	Success bool         `json:"success"`
	AlertID int64        `json:"alert_id"`
	Points  []PricePoint `json:"points"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`
	Sites     int       `json:"sites"`
	Store     string    `json:"store"`
	CheckedAt time.Time `json:"checked_at"`
}

// ErrorResponse is the body of every error that is not tied to a single
// price check.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
