// Package engine fetches retailer pages the way a patient desktop browser
// would: fresh identities per attempt, cookie pre-warming for hardened
// sites, and status-aware backoff between attempts.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/use-agent/pricewatch/site"
)

// ErrFetchExhausted is returned when every attempt for a URL failed.
var ErrFetchExhausted = errors.New("engine: all fetch attempts failed")

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// Fetch retrieves the page for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a product page.
type FetchRequest struct {
	URL  string
	Site site.Site

	// MaxRetries caps the number of attempts. Zero uses the engine default.
	MaxRetries int

	// Referer overrides the site's default Referer header when set.
	Referer string
}

// FetchResult is the output of a successful fetch.
type FetchResult struct {
	HTML        string
	StatusCode  int
	FinalURL    string
	ContentType string
	Attempts    int
	EngineName  string
}

// Attempt records one try inside the retry loop.
type Attempt struct {
	Index   int
	Headers http.Header
	Status  int
	Delay   time.Duration
	Err     error
}

// StatusError reports an unusable HTTP status from the last attempt.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// errTooSmall marks a 200 response whose body looks like a block page.
type errTooSmall struct {
	size int
}

func (e *errTooSmall) Error() string {
	return fmt.Sprintf("response too small (%d bytes), probable block page", e.size)
}
