package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/use-agent/pricewatch/site"
)

// prewarm visits the retailer's homepage with a throwaway client so the
// product request arrives with the cookies a real visitor would have.
// Failures are logged and otherwise ignored.
func (e *HTTPEngine) prewarm(ctx context.Context, sess *session, s site.Site, target *url.URL) {
	home := s.Homepage
	if home == "" {
		home = target.Scheme + "://" + target.Host + "/"
	}
	homeURL, err := url.Parse(home)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.PrewarmTimeout)
	defer cancel()

	rt, err := e.opts.NewTransport()
	if err != nil {
		slog.Debug("prewarm skipped", "site", s.ID, "error", err)
		return
	}
	warm := newSession(rt)
	defer warm.close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, home, nil)
	if err != nil {
		return
	}
	req.Header = e.opts.Headers(s.ID, "")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/xhtml+xml,application/xml;q=0.8,*/*;q=0.7")
	req.Header.Set("Pragma", "no-cache")

	resp, err := warm.client.Do(req)
	if err != nil {
		slog.Debug("prewarm failed", "site", s.ID, "homepage", home, "error", err)
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	resp.Body.Close()

	cookies := warm.cookies(homeURL)
	sess.seed(homeURL, cookies)
	slog.Debug("prewarm done", "site", s.ID, "status", resp.StatusCode, "cookies", len(cookies))
}
