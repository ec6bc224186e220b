// Package extractor finds the selling price and product name on a parsed
// retailer page using per-site strategies.
package extractor

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a parsed product page. Text views are computed once on demand.
type Page struct {
	Doc *goquery.Document

	textOnce sync.Once
	texts    []string

	scriptOnce sync.Once
	scripts    []string
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("extractor: parse html: %w", err)
	}
	return &Page{Doc: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Page, error) {
	return Parse(strings.NewReader(s))
}

// TextNodes returns the trimmed, non-empty text nodes a visitor could see,
// in document order. Script, style, noscript and template contents are
// skipped; the title is kept.
func (p *Page) TextNodes() []string {
	p.textOnce.Do(func() {
		for _, n := range p.Doc.Nodes {
			p.texts = appendVisible(p.texts, n)
		}
	})
	return p.texts
}

// Text returns the visible text joined by single spaces.
func (p *Page) Text() string {
	return strings.Join(p.TextNodes(), " ")
}

// Scripts returns the raw contents of every <script> element.
func (p *Page) Scripts() []string {
	p.scriptOnce.Do(func() {
		p.Doc.Find("script").Each(func(_ int, s *goquery.Selection) {
			if t := s.Text(); strings.TrimSpace(t) != "" {
				p.scripts = append(p.scripts, t)
			}
		})
	})
	return p.scripts
}

func appendVisible(out []string, n *html.Node) []string {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			out = append(out, t)
		}
		return out
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return out
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = appendVisible(out, c)
	}
	return out
}

// collapse squeezes runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
