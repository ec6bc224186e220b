package models

// PriceRequest is the payload for POST /api/v1/price.
type PriceRequest struct {
	// URL is the product page to check. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxAge allows serving a cached result younger than this many
	// milliseconds. Zero always fetches.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// ClassifyRequest is the payload for POST /api/v1/classify.
type ClassifyRequest struct {
	URL string `json:"url" binding:"required"`
}

// BatchRequest is the payload for POST /api/v1/price/batch.
type BatchRequest struct {
	// URLs is the list of product pages to check. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=20,dive,url"`

	// MaxAge applies to every URL, see PriceRequest.MaxAge.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// AlertRequest is the payload for POST /api/v1/alerts.
type AlertRequest struct {
	URL         string  `json:"url" binding:"required,url"`
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
}
