package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scripted struct {
	name  string
	fail  bool
	calls int
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Fetch(_ context.Context, req *FetchRequest) (*FetchResult, error) {
	s.calls++
	if s.fail {
		return nil, ErrFetchExhausted
	}
	return &FetchResult{HTML: "ok", FinalURL: req.URL, EngineName: s.name}, nil
}

func TestChainEscalatesAndRemembers(t *testing.T) {
	direct := &scripted{name: "http", fail: true}
	proxy := &scripted{name: "http-proxy"}
	c := NewChain(time.Hour, direct, proxy)
	req := &FetchRequest{URL: "https://www.ajio.com/p/1"}

	res, err := c.Fetch(context.Background(), req)
	if err != nil || res.EngineName != "http-proxy" {
		t.Fatalf("Fetch = %+v, %v", res, err)
	}
	if _, err := c.Fetch(context.Background(), req); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if direct.calls != 1 || proxy.calls != 2 {
		t.Errorf("calls direct=%d proxy=%d, want 1 and 2", direct.calls, proxy.calls)
	}

	// Other hosts still start with the direct engine.
	direct.fail = false
	res, _ = c.Fetch(context.Background(), &FetchRequest{URL: "https://www.myntra.com/p/1"})
	if res.EngineName != "http" {
		t.Errorf("EngineName = %s, want http", res.EngineName)
	}
}

func TestChainAllFail(t *testing.T) {
	c := NewChain(time.Hour, &scripted{name: "a", fail: true}, &scripted{name: "b", fail: true})
	_, err := c.Fetch(context.Background(), &FetchRequest{URL: "https://x.com/"})
	if !errors.Is(err, ErrFetchExhausted) {
		t.Errorf("err = %v, want ErrFetchExhausted in chain", err)
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	second := &scripted{name: "b"}
	ctx, cancel := context.WithCancel(context.Background())
	first := &cancelling{cancel: cancel}
	c := NewChain(time.Hour, first, second)
	if _, err := c.Fetch(ctx, &FetchRequest{URL: "https://x.com/"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if second.calls != 0 {
		t.Error("chain escalated after cancellation")
	}
}

type cancelling struct{ cancel context.CancelFunc }

func (c *cancelling) Name() string { return "a" }

func (c *cancelling) Fetch(ctx context.Context, _ *FetchRequest) (*FetchResult, error) {
	c.cancel()
	return nil, ctx.Err()
}
