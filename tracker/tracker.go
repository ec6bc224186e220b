// Package tracker turns a product URL into an extraction result. It is the
// single entry point used by the API, the scheduler and the MCP server.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/pricewatch/cache"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/engine"
	"github.com/use-agent/pricewatch/extractor"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/site"
)

const (
	msgInvalidURL = "Invalid product URL"
	msgFetch      = "Failed to fetch page after multiple attempts"
	msgCancelled  = "The price check was cancelled before the page could be fetched"
	msgParse      = "Could not parse the page content"
	msgInternal   = "Unexpected error while checking the price"
)

// Service runs price checks. It is safe for concurrent use; every call
// fetches through its own session.
type Service struct {
	engine   engine.Engine
	registry *extractor.Registry
	cache    *cache.Cache
	now      func() time.Time
}

// New creates a Service. c may be nil to disable caching.
func New(eng engine.Engine, reg *extractor.Registry, c *cache.Cache) *Service {
	if reg == nil {
		reg = extractor.NewRegistry()
	}
	return &Service{engine: eng, registry: reg, cache: c, now: time.Now}
}

// Classify reports which retailer a URL belongs to without any network
// access.
func (s *Service) Classify(rawURL string) site.Site {
	return site.Classify(rawURL)
}

// Extract fetches rawURL and reads its price and product name. It never
// panics and never returns an error: failures come back as a result with a
// nil Price and a human-readable Error.
func (s *Service) Extract(ctx context.Context, rawURL string) (res models.ExtractionResult) {
	start := s.now()
	st := site.Classify(rawURL)
	res = models.ExtractionResult{
		URL:            rawURL,
		Site:           string(st.ID),
		Currency:       st.Currency,
		CurrencySymbol: st.Symbol,
	}
	log := slog.With("site", st.ID, "url", rawURL)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during extraction", "panic", r)
			res.Price = nil
			res.ProductName = ""
			res.Error = msgInternal
			res.ErrorCode = models.ErrCodeInternal
		}
		res.CheckedAt = s.now()
	}()

	if !validURL(rawURL) {
		return fail(res, models.ErrCodeInvalidInput, msgInvalidURL)
	}

	fetched, err := s.engine.Fetch(ctx, &engine.FetchRequest{URL: rawURL, Site: st})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Warn("extraction cancelled", "error", err)
			return fail(res, models.ErrCodeFetch, msgCancelled)
		}
		log.Error("fetch failed", "error", err)
		return fail(res, models.ErrCodeFetch, msgFetch)
	}
	res.Attempts = fetched.Attempts

	page, err := extractor.ParseString(fetched.HTML)
	if err != nil {
		log.Error("parse failed", "error", err)
		return fail(res, models.ErrCodeParse, msgParse)
	}

	m, ok := s.registry.ExtractPrice(page, st)
	if !ok {
		if extractor.LooksBlocked(page) {
			log.Warn("bot wall detected", "attempts", fetched.Attempts)
			return fail(res, models.ErrCodeExtraction, blockedMessage(st.ID))
		}
		log.Warn("no price found", "attempts", fetched.Attempts)
		return fail(res, models.ErrCodeExtraction, extractionMessage(st.ID))
	}

	p := m.Price
	res.Price = &p
	res.Tier = m.Tier
	res.ProductName = s.registry.ExtractProductName(page, st.ID)
	log.Info("price extracted",
		"price", p,
		"currency", st.Currency,
		"tier", m.Tier,
		"attempts", fetched.Attempts,
		"duration", s.now().Sub(start),
	)
	return res
}

// ExtractCached serves a cached result younger than maxAgeMs milliseconds,
// or runs Extract and caches a successful result. The bool reports a cache
// hit.
func (s *Service) ExtractCached(ctx context.Context, rawURL string, maxAgeMs int) (models.ExtractionResult, bool) {
	if s.cache == nil || maxAgeMs <= 0 {
		return s.Extract(ctx, rawURL), false
	}
	key := cache.Key(rawURL)
	if cached, ok := s.cache.Get(key, maxAgeMs); ok {
		return *cached, true
	}
	res := s.Extract(ctx, rawURL)
	if res.OK() {
		cp := res
		s.cache.Set(key, &cp)
	}
	return res, false
}

func fail(res models.ExtractionResult, code, msg string) models.ExtractionResult {
	res.Price = nil
	res.ErrorCode = code
	res.Error = msg
	return res
}

func extractionMessage(id site.ID) string {
	return fmt.Sprintf("Could not extract price from %s. The site may have changed its structure.", displayName(id))
}

func blockedMessage(id site.ID) string {
	return fmt.Sprintf("%s answered with a bot check instead of the product page. Try again later.", displayName(id))
}

func displayName(id site.ID) string {
	if id == site.Unknown {
		return "this site"
	}
	return string(id)
}

func validURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// FromConfig builds a Service with the production fetch engine, the built-in
// strategies plus any overrides file, and a result cache. The returned func
// releases background resources.
func FromConfig(cfg *config.Config) (*Service, func(), error) {
	reg := extractor.NewRegistry()
	if path := cfg.Extractor.SitesFile; path != "" {
		ov, err := extractor.LoadOverrides(path)
		if err != nil {
			return nil, nil, err
		}
		if err := reg.Apply(ov); err != nil {
			return nil, nil, err
		}
		slog.Info("site overrides loaded", "path", path, "sites", len(ov.Sites))
	}

	f := cfg.Fetch
	for _, proxy := range []string{f.Proxy, f.FallbackProxy} {
		if proxy == "" {
			continue
		}
		if _, err := engine.NewChromeTransport(proxy); err != nil {
			return nil, nil, err
		}
	}
	opts := engine.DefaultOptions()
	opts.MaxRetries = f.MaxRetries
	opts.AttemptTimeout = f.AttemptTimeout
	opts.PrewarmTimeout = f.PrewarmTimeout
	opts.PaceMin, opts.PaceMax = f.PaceMin, f.PaceMax
	opts.RateLimitStep = f.RateLimitStep
	opts.UnavailableStep = f.UnavailableStep
	opts.TimeoutStep = f.TimeoutStep
	opts.TransportErrorDelay = f.TransportErrorDelay
	opts.HostRPS, opts.HostBurst = f.HostRPS, f.HostBurst
	opts.Proxy = f.Proxy
	opts.BlockTTL = f.BlockTTL
	direct := engine.NewHTTPEngine(opts)

	var (
		eng         engine.Engine = direct
		closeEngine               = direct.Close
	)
	if f.FallbackProxy != "" {
		popts := opts
		popts.Name = "http-proxy"
		popts.Proxy = f.FallbackProxy
		chain := engine.NewChain(f.BlockTTL, direct, engine.NewHTTPEngine(popts))
		eng, closeEngine = chain, chain.Close
	}

	c := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	cleanup := func() {
		c.Close()
		closeEngine()
	}
	return New(eng, reg, c), cleanup, nil
}
