package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeParse        = "PARSE_FAILED"
	ErrCodeExtraction   = "EXTRACTION_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Suggestion is shown to users next to any extraction failure.
const Suggestion = "Try checking the URL directly in your browser. If the product exists, the site may be blocking automated access."

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PriceError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PriceError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PriceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PriceError) Unwrap() error {
	return e.Err
}

// NewPriceError creates a new PriceError.
func NewPriceError(code, message string, err error) *PriceError {
	return &PriceError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
// The wrapped error never leaves the process.
func (e *PriceError) ToDetail() *ErrorDetail {
	d := &ErrorDetail{Code: e.Code, Message: e.Message}
	switch e.Code {
	case ErrCodeFetch, ErrCodeParse, ErrCodeExtraction:
		d.Suggestion = Suggestion
	}
	return d
}
