package extractor

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/pricewatch/price"
)

// Match is a price found on a page together with where it came from.
type Match struct {
	Price  float64
	Tier   string
	Source string
}

// Tier is one way of locating a price. Strategies run their tiers in order
// and stop at the first hit.
type Tier interface {
	Name() string
	Find(p *Page, symbols []string) (Match, bool)
}

type selector struct {
	raw string
	m   goquery.Matcher
}

func compileSelectors(raws []string) ([]selector, error) {
	out := make([]selector, 0, len(raws))
	for _, raw := range raws {
		m, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("extractor: selector %q: %w", raw, err)
		}
		out = append(out, selector{raw: raw, m: m})
	}
	return out, nil
}

func mustSelectors(raws []string) []selector {
	s, err := compileSelectors(raws)
	if err != nil {
		panic(err)
	}
	return s
}

// SelectorTier tries CSS selectors in order. For each selector only the
// first matching element is considered; its content attribute or text is
// normalized and accepted when inside Range.
type SelectorTier struct {
	Range price.Range

	// Scan takes the first in-range number inside the element text instead
	// of normalizing the whole text.
	Scan bool

	sels []selector
}

// Selectors builds a SelectorTier. It panics on an invalid selector, so it
// is meant for static tables.
func Selectors(r price.Range, raws ...string) *SelectorTier {
	return &SelectorTier{Range: r, sels: mustSelectors(raws)}
}

func (t *SelectorTier) Name() string { return "selector" }

func (t *SelectorTier) Find(p *Page, _ []string) (Match, bool) {
	for _, s := range t.sels {
		el := p.Doc.FindMatcher(s.m).First()
		if el.Length() == 0 {
			continue
		}
		if v, ok := t.value(el); ok {
			return Match{Price: v, Tier: t.Name(), Source: s.raw}, true
		}
	}
	return Match{}, false
}

func (t *SelectorTier) value(el *goquery.Selection) (float64, bool) {
	if c, ok := el.Attr("content"); ok {
		if v, ok := price.Parse(c); ok && t.Range.Contains(v) {
			return v, true
		}
	}
	if dp, ok := el.Attr("data-price"); ok {
		if v, ok := price.Parse(dp); ok && t.Range.Contains(v) {
			return v, true
		}
	}
	text := strings.TrimSpace(el.Text())
	if t.Scan {
		for _, raw := range bareNumber.FindAllString(text, -1) {
			if v, ok := price.Parse(raw); ok && t.Range.Contains(v) {
				return v, true
			}
		}
		return 0, false
	}
	if v, ok := price.Parse(text); ok && t.Range.Contains(v) {
		return v, true
	}
	return 0, false
}

var bareNumber = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// SectionTier scans symbol-prefixed amounts inside the first element
// matched by any of its selectors and returns the first amount in Range
// that is not a known section decoy.
type SectionTier struct {
	Range  price.Range
	Decoys []float64
	sels   []selector
}

// Section builds a SectionTier for static tables.
func Section(r price.Range, decoys []float64, raws ...string) *SectionTier {
	return &SectionTier{Range: r, Decoys: decoys, sels: mustSelectors(raws)}
}

func (t *SectionTier) Name() string { return "section" }

func (t *SectionTier) Find(p *Page, symbols []string) (Match, bool) {
	re := amountPattern(symbols)
	for _, s := range t.sels {
		el := p.Doc.FindMatcher(s.m)
		if el.Length() == 0 {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(el.Text(), -1) {
			v, ok := price.Parse(m[1])
			if !ok || !t.Range.Contains(v) || slices.Contains(t.Decoys, v) {
				continue
			}
			return Match{Price: v, Tier: t.Name(), Source: s.raw}, true
		}
		// Only the first section present is scanned.
		return Match{}, false
	}
	return Match{}, false
}

// ScriptTier looks for price keys inside embedded script payloads, such as
// the JSON state object of single-page storefronts.
type ScriptTier struct {
	Range    price.Range
	patterns []*regexp.Regexp
}

// Scripts builds a ScriptTier from regular expressions whose first group
// captures the number.
func Scripts(r price.Range, patterns ...string) *ScriptTier {
	t := &ScriptTier{Range: r}
	for _, p := range patterns {
		t.patterns = append(t.patterns, regexp.MustCompile(p))
	}
	return t
}

func (t *ScriptTier) Name() string { return "script" }

func (t *ScriptTier) Find(p *Page, _ []string) (Match, bool) {
	for _, script := range p.Scripts() {
		for _, re := range t.patterns {
			for _, m := range re.FindAllStringSubmatch(script, -1) {
				v, err := strconv.ParseFloat(m[1], 64)
				if err != nil || !t.Range.Contains(v) || v <= 0 {
					continue
				}
				return Match{Price: v, Tier: t.Name(), Source: re.String()}, true
			}
		}
	}
	return Match{}, false
}

var amountPatterns sync.Map // joined symbols -> *regexp.Regexp

// amountPattern matches a currency symbol followed by an amount, capturing
// the amount. Spaces and thousands separators may follow the symbol.
func amountPattern(symbols []string) *regexp.Regexp {
	key := strings.Join(symbols, "\x00")
	if re, ok := amountPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	quoted := make([]string, 0, len(symbols))
	for _, s := range symbols {
		quoted = append(quoted, regexp.QuoteMeta(s))
	}
	re := regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)[\s,]*(\d[\d,]*\.?\d*)`)
	amountPatterns.Store(key, re)
	return re
}
