package models

// BatchResponse is the response for POST /api/v1/price/batch. Results keep
// the order of the request URLs.
type BatchResponse struct {
	Success   bool                `json:"success"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []*ExtractionResult `json:"results"`
	Timing    TimingInfo          `json:"timing"`
}
