package engine

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestHostPacerDeadlineTooShort(t *testing.T) {
	p := newHostPacer(0.01, 1)
	if err := p.Wait(context.Background(), "www.amazon.in"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := p.Wait(ctx, "www.amazon.in")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait should fail without sleeping")
	}

	if err := p.Wait(context.Background(), "www.flipkart.com"); err != nil {
		t.Errorf("other hosts are paced separately: %v", err)
	}
}

func TestFetchPacingDeadlineIsContextError(t *testing.T) {
	var calls int
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(r, http.StatusOK, productPage, nil), nil
	})
	opts := DefaultOptions()
	opts.HostRPS, opts.HostBurst = 0.01, 1
	opts.Sleeper = &recordingSleeper{}
	opts.NewTransport = func() (http.RoundTripper, error) { return rt, nil }
	e := NewHTTPEngine(opts)
	defer e.Close()

	req := &FetchRequest{URL: "https://www.amazon.in/dp/X", Site: plainSite}
	if _, err := e.Fetch(context.Background(), req); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.Fetch(ctx, req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrFetchExhausted) {
		t.Error("a pacing refusal is not an exhausted fetch")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want no request after the pacing refusal", calls)
	}
}
