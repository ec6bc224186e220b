package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type hostEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// hostPacer spaces requests to the same host across concurrent fetches.
// Entries unused for an hour are evicted lazily on the next Wait.
type hostPacer struct {
	mu        sync.Mutex
	limiters  map[string]*hostEntry
	rps       float64
	burst     int
	lastSweep time.Time
}

func newHostPacer(rps float64, burst int) *hostPacer {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &hostPacer{
		limiters:  make(map[string]*hostEntry),
		rps:       rps,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Wait blocks until host may be contacted again. A nil pacer never blocks.
// When the next slot lies past ctx's deadline it fails at once with an
// error wrapping context.DeadlineExceeded.
func (p *hostPacer) Wait(ctx context.Context, host string) error {
	if p == nil {
		return nil
	}
	if err := p.get(host).Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("engine: pace %s: %w", host, context.DeadlineExceeded)
	}
	return nil
}

func (p *hostPacer) get(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.lastSweep) > 5*time.Minute {
		cutoff := now.Add(-1 * time.Hour)
		for h, e := range p.limiters {
			if e.lastSeen.Before(cutoff) {
				delete(p.limiters, h)
			}
		}
		p.lastSweep = now
	}

	e, ok := p.limiters[host]
	if !ok {
		e = &hostEntry{limiter: rate.NewLimiter(rate.Limit(p.rps), p.burst)}
		p.limiters[host] = e
	}
	e.lastSeen = now
	return e.limiter
}
