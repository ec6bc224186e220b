package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Chain tries engines in order until one succeeds. It remembers, per host,
// which engine last succeeded and starts there next time, so a host that
// only answers through the proxy engine does not pay for a failed direct
// attempt on every call.
type Chain struct {
	engines []Engine
	ttl     time.Duration

	mu        sync.Mutex
	preferred map[string]preference
}

type preference struct {
	engine  string
	expires time.Time
}

// NewChain creates a Chain over engines. Preferences expire after ttl.
func NewChain(ttl time.Duration, engines ...Engine) *Chain {
	return &Chain{
		engines:   engines,
		ttl:       ttl,
		preferred: make(map[string]preference),
	}
}

func (c *Chain) Name() string { return "chain" }

// Fetch runs the engines in order, starting with the host's preferred one.
// Cancellation stops the chain immediately.
func (c *Chain) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	host := hostOf(req.URL)
	var errs []error
	for _, eng := range c.order(host) {
		res, err := eng.Fetch(ctx, req)
		if err == nil {
			c.remember(host, eng.Name())
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Info("engine failed, escalating", "engine", eng.Name(), "host", host, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", eng.Name(), err))
		c.forget(host, eng.Name())
	}
	if len(errs) == 0 {
		return nil, errors.New("engine: chain has no engines")
	}
	return nil, errors.Join(errs...)
}

// Close closes every engine that can be closed.
func (c *Chain) Close() {
	for _, eng := range c.engines {
		if cl, ok := eng.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}

func (c *Chain) order(host string) []Engine {
	c.mu.Lock()
	p, ok := c.preferred[host]
	if ok && time.Now().After(p.expires) {
		delete(c.preferred, host)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return c.engines
	}

	out := make([]Engine, 0, len(c.engines))
	for _, eng := range c.engines {
		if eng.Name() == p.engine {
			out = append(out, eng)
		}
	}
	for _, eng := range c.engines {
		if eng.Name() != p.engine {
			out = append(out, eng)
		}
	}
	return out
}

func (c *Chain) remember(host, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preferred[host] = preference{engine: name, expires: time.Now().Add(c.ttl)}
}

func (c *Chain) forget(host, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.preferred[host]; ok && p.engine == name {
		delete(c.preferred, host)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
