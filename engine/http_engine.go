package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/pricewatch/identity"
	"github.com/use-agent/pricewatch/site"
)

// Options tunes the retry loop. DefaultOptions returns production values;
// zero backoff steps disable the corresponding sleep.
type Options struct {
	// Name identifies the engine in logs and results. Defaults to "http".
	Name string

	MaxRetries     int
	AttemptTimeout time.Duration
	PrewarmTimeout time.Duration

	// Before attempt n>0 the engine sleeps uniform(PaceMin, PaceMax)*(n+1).
	PaceMin time.Duration
	PaceMax time.Duration

	// Backoff after a given outcome is Step*(n+1), n being the attempt index.
	RateLimitStep   time.Duration // 429
	UnavailableStep time.Duration // 503
	TimeoutStep     time.Duration // attempt deadline exceeded

	// TransportErrorDelay is a flat sleep after any other request error.
	TransportErrorDelay time.Duration

	// MinBodyBytes is the smallest 200 body accepted as a real page.
	MinBodyBytes int

	// HostRPS and HostBurst pace requests per host across all calls.
	// HostRPS <= 0 disables pacing.
	HostRPS   float64
	HostBurst int

	Proxy    string
	BlockTTL time.Duration

	// NewTransport builds the round tripper for each session. Nil uses a
	// Chrome-fingerprinted transport.
	NewTransport func() (http.RoundTripper, error)

	// Sleeper performs every wait. Nil uses a context-aware timer.
	Sleeper Sleeper

	// Headers builds the identity for each attempt. Nil uses identity.Headers.
	Headers func(id site.ID, referer string) http.Header

	// Jitter returns a value in [0, 1). Nil uses math/rand/v2.
	Jitter func() float64
}

// DefaultOptions returns the retry policy used in production.
func DefaultOptions() Options {
	return Options{
		MaxRetries:          5,
		AttemptTimeout:      25 * time.Second,
		PrewarmTimeout:      15 * time.Second,
		PaceMin:             3 * time.Second,
		PaceMax:             8 * time.Second,
		RateLimitStep:       15 * time.Second,
		UnavailableStep:     10 * time.Second,
		TimeoutStep:         5 * time.Second,
		TransportErrorDelay: 2 * time.Second,
		MinBodyBytes:        500,
		HostRPS:             1,
		HostBurst:           2,
		BlockTTL:            6 * time.Hour,
	}
}

// HTTPEngine fetches product pages over plain HTTP with browser-like
// headers and TLS fingerprint. It holds no per-call state; every Fetch
// runs in its own cookie session.
type HTTPEngine struct {
	opts    Options
	pacer   *hostPacer
	blocked *BlockMemory
}

// NewHTTPEngine creates an HTTPEngine from opts, filling unset essentials
// from DefaultOptions.
func NewHTTPEngine(opts Options) *HTTPEngine {
	def := DefaultOptions()
	if opts.Name == "" {
		opts.Name = "http"
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = def.AttemptTimeout
	}
	if opts.PrewarmTimeout <= 0 {
		opts.PrewarmTimeout = def.PrewarmTimeout
	}
	if opts.MinBodyBytes <= 0 {
		opts.MinBodyBytes = def.MinBodyBytes
	}
	if opts.BlockTTL <= 0 {
		opts.BlockTTL = def.BlockTTL
	}
	if opts.NewTransport == nil {
		proxy := opts.Proxy
		opts.NewTransport = func() (http.RoundTripper, error) {
			return NewChromeTransport(proxy)
		}
	}
	if opts.Sleeper == nil {
		opts.Sleeper = timerSleeper{}
	}
	if opts.Headers == nil {
		opts.Headers = identity.Headers
	}
	if opts.Jitter == nil {
		opts.Jitter = rand.Float64
	}
	return &HTTPEngine{
		opts:    opts,
		pacer:   newHostPacer(opts.HostRPS, opts.HostBurst),
		blocked: NewBlockMemory(opts.BlockTTL),
	}
}

func (e *HTTPEngine) Name() string { return e.opts.Name }

// Close stops background housekeeping.
func (e *HTTPEngine) Close() {
	e.blocked.Stop()
}

// Fetch retrieves req.URL, retrying on block pages, throttling and
// transport errors. It returns ErrFetchExhausted when every attempt failed
// and ctx.Err() as soon as ctx is done.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("engine: invalid url %q", req.URL)
	}
	host := u.Hostname()
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = e.opts.MaxRetries
	}

	rt, err := e.opts.NewTransport()
	if err != nil {
		return nil, fmt.Errorf("engine: build transport: %w", err)
	}
	sess := newSession(rt)
	defer sess.close()

	if req.Site.Hardened || e.blocked.Blocked(host) {
		e.prewarm(ctx, sess, req.Site, u)
	}

	log := slog.With("site", req.Site.ID, "url", req.URL)
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		var delay time.Duration
		if attempt > 0 {
			delay = e.paceDelay(attempt)
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := e.pacer.Wait(ctx, host); err != nil {
			return nil, err
		}

		a := Attempt{Index: attempt, Delay: delay, Headers: e.opts.Headers(req.Site.ID, req.Referer)}
		res, err := e.do(ctx, sess, req.URL, a.Headers)
		a.Err = err
		if res != nil {
			a.Status = res.StatusCode
		}
		log.Debug("fetch attempt", "attempt", attempt+1, "of", maxRetries,
			"status", a.Status, "delay", a.Delay, "user_agent", a.Headers.Get("User-Agent"), "error", a.Err)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			backoff := e.opts.TransportErrorDelay
			if isTimeout(err) {
				backoff = e.opts.TimeoutStep * time.Duration(attempt+1)
				log.Warn("fetch attempt timed out", "attempt", attempt+1)
			} else {
				log.Warn("fetch attempt failed", "attempt", attempt+1, "error", err)
			}
			if err := e.backoff(ctx, attempt, maxRetries, backoff); err != nil {
				return nil, err
			}
			continue
		}

		switch res.StatusCode {
		case http.StatusOK:
			if len(res.HTML) < e.opts.MinBodyBytes {
				lastErr = &errTooSmall{size: len(res.HTML)}
				log.Warn("response too small, might be a block page", "attempt", attempt+1, "bytes", len(res.HTML))
				continue
			}
			e.blocked.Forget(host)
			res.Attempts = attempt + 1
			res.EngineName = e.Name()
			return res, nil

		case http.StatusForbidden:
			lastErr = &StatusError{Code: res.StatusCode}
			log.Warn("forbidden, clearing cookies", "attempt", attempt+1)
			sess.clearCookies()
			e.blocked.Mark(host)

		case http.StatusTooManyRequests:
			lastErr = &StatusError{Code: res.StatusCode}
			log.Warn("rate limited, backing off", "attempt", attempt+1)
			if err := e.backoff(ctx, attempt, maxRetries, e.opts.RateLimitStep*time.Duration(attempt+1)); err != nil {
				return nil, err
			}

		case http.StatusServiceUnavailable:
			lastErr = &StatusError{Code: res.StatusCode}
			log.Warn("service unavailable, backing off", "attempt", attempt+1)
			if err := e.backoff(ctx, attempt, maxRetries, e.opts.UnavailableStep*time.Duration(attempt+1)); err != nil {
				return nil, err
			}

		default:
			lastErr = &StatusError{Code: res.StatusCode}
			log.Warn("unexpected status", "attempt", attempt+1, "status", res.StatusCode)
		}
	}

	log.Error("all fetch attempts failed", "attempts", maxRetries, "error", lastErr)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFetchExhausted, maxRetries, lastErr)
}

// do performs a single GET bounded by the attempt timeout.
func (e *HTTPEngine) do(ctx context.Context, sess *session, rawURL string, h http.Header) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.AttemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: build request: %w", err)
	}
	httpReq.Header = h.Clone()

	resp, err := sess.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	return &FetchResult{
		HTML:        string(body),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// paceDelay is the human-like pause before attempt n>0.
func (e *HTTPEngine) paceDelay(attempt int) time.Duration {
	span := e.opts.PaceMax - e.opts.PaceMin
	base := e.opts.PaceMin
	if span > 0 {
		base += time.Duration(e.opts.Jitter() * float64(span))
	}
	return base * time.Duration(attempt+1)
}

// backoff sleeps d unless attempt was the last one.
func (e *HTTPEngine) backoff(ctx context.Context, attempt, maxRetries int, d time.Duration) error {
	if attempt == maxRetries-1 {
		return nil
	}
	return e.sleep(ctx, d)
}

func (e *HTTPEngine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return e.opts.Sleeper.Sleep(ctx, d)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
