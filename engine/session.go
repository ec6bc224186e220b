package engine

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// session is the cookie-carrying client for a single Fetch call. It is
// never shared between calls.
type session struct {
	client    *http.Client
	transport http.RoundTripper
}

func newSession(rt http.RoundTripper) *session {
	s := &session{transport: rt}
	s.client = &http.Client{
		Transport: rt,
		Jar:       newJar(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
	return s
}

func newJar() http.CookieJar {
	// cookiejar.New never returns a non-nil error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// clearCookies drops every cookie collected so far.
func (s *session) clearCookies() {
	s.client.Jar = newJar()
}

// seed copies cookies obtained elsewhere for u into this session.
func (s *session) seed(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) > 0 {
		s.client.Jar.SetCookies(u, cookies)
	}
}

func (s *session) cookies(u *url.URL) []*http.Cookie {
	return s.client.Jar.Cookies(u)
}

func (s *session) close() {
	if c, ok := s.transport.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
