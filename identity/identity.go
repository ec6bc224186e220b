// Package identity generates browser-like request headers so that retailer
// pages are served as they would be to a desktop visitor.
package identity

import (
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/use-agent/pricewatch/site"
)

// browser is one desktop identity. Client-hint fields are empty for browsers
// that do not send them.
type browser struct {
	userAgent string
	secChUa   string
	platform  string
}

var browsers = []browser{
	// Chrome on Windows
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", chromeHint("120"), `"Windows"`},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36", chromeHint("119"), `"Windows"`},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36", chromeHint("121"), `"Windows"`},
	// Chrome on macOS
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", chromeHint("120"), `"macOS"`},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36", chromeHint("119"), `"macOS"`},
	// Firefox
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0", "", ""},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0", "", ""},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0", "", ""},
	// Safari
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15", "", ""},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15", "", ""},
	// Edge on Windows
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0", edgeHint("120"), `"Windows"`},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0", edgeHint("121"), `"Windows"`},
}

func chromeHint(v string) string {
	return `"Not_A Brand";v="8", "Chromium";v="` + v + `", "Google Chrome";v="` + v + `"`
}

func edgeHint(v string) string {
	return `"Not_A Brand";v="8", "Chromium";v="` + v + `", "Microsoft Edge";v="` + v + `"`
}

// UserAgents returns the identity pool.
func UserAgents() []string {
	out := make([]string, len(browsers))
	for i, b := range browsers {
		out[i] = b.userAgent
	}
	return out
}

// overlay holds per-site header overrides beyond Referer/Origin.
var overlay = map[site.ID]map[string]string{
	site.Ajio: {
		"Accept-Language": "en-US,en;q=0.9",
		"Sec-Fetch-Site":  "same-origin",
		"Sec-Fetch-Mode":  "cors",
	},
	site.Meesho: {
		"Accept-Language": "en-US,en;q=0.9,hi;q=0.8",
	},
}

// Generator builds header sets. The zero value picks identities with the
// global random source.
type Generator struct {
	// Pick returns an index in [0, n). Nil uses math/rand/v2.
	Pick func(n int) int
}

var defaultGenerator Generator

// Headers builds a fresh header set for a request to a page of site id.
// A non-empty referer overrides the site's default referer.
func Headers(id site.ID, referer string) http.Header {
	return defaultGenerator.Headers(id, referer)
}

// Headers builds a fresh header set for a request to a page of site id.
func (g Generator) Headers(id site.ID, referer string) http.Header {
	pick := g.Pick
	if pick == nil {
		pick = rand.IntN
	}
	b := browsers[pick(len(browsers))]

	h := http.Header{}
	h.Set("User-Agent", b.userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Accept-Language", "en-US,en;q=0.9,en-GB;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")
	h.Set("DNT", "1")
	if b.secChUa != "" {
		h.Set("Sec-Ch-Ua", b.secChUa)
		h.Set("Sec-Ch-Ua-Mobile", "?0")
		h.Set("Sec-Ch-Ua-Platform", b.platform)
	}

	if id != site.Unknown && id != "" {
		if home := site.Lookup(id).Homepage; home != "" {
			h.Set("Referer", home)
			h.Set("Origin", strings.TrimSuffix(home, "/"))
			h.Set("X-Requested-With", "XMLHttpRequest")
		}
		for k, v := range overlay[id] {
			h.Set(k, v)
		}
	}

	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
