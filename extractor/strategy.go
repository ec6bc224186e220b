package extractor

import (
	"log/slog"
	"unicode/utf8"

	"github.com/use-agent/pricewatch/site"
)

// UnknownProduct is the name reported when no title can be found.
const UnknownProduct = "Unknown Product"

const maxNameRunes = 100

// Strategy describes how to read one retailer's pages: ordered tiers, then
// the frequency fallback.
type Strategy struct {
	Site     site.ID
	Tiers    []Tier
	Fallback Fallback
	names    []selector
}

func newStrategy(id site.ID, names []string, fb Fallback, tiers ...Tier) *Strategy {
	return &Strategy{Site: id, Tiers: tiers, Fallback: fb, names: mustSelectors(names)}
}

// Registry maps sites to strategies. Sites without an entry use the
// generic strategy. A Registry is safe for concurrent reads.
type Registry struct {
	strategies map[site.ID]*Strategy
	generic    *Strategy
}

// NewRegistry returns a registry holding the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		strategies: make(map[site.ID]*Strategy),
		generic:    genericStrategy(),
	}
	for _, s := range builtinStrategies() {
		r.strategies[s.Site] = s
	}
	return r
}

// Strategy returns the strategy for id, or the generic one.
func (r *Registry) Strategy(id site.ID) *Strategy {
	if s, ok := r.strategies[id]; ok {
		return s
	}
	return r.generic
}

// ExtractPrice runs the site's tiers in order and falls back to the
// frequency vote. The symbol of s seeds tiers that scan for amounts.
func (r *Registry) ExtractPrice(p *Page, s site.Site) (Match, bool) {
	strat := r.Strategy(s.ID)
	symbols := []string{s.Symbol}
	if s.Symbol == "" {
		symbols = AllSymbols
	}

	for _, t := range strat.Tiers {
		if m, ok := t.Find(p, symbols); ok {
			slog.Debug("price found", "site", s.ID, "tier", m.Tier, "source", m.Source, "price", m.Price)
			return m, true
		}
	}
	if m, ok := strat.Fallback.Find(p, symbols); ok {
		slog.Debug("price found", "site", s.ID, "tier", m.Tier, "source", m.Source, "price", m.Price)
		return m, true
	}
	slog.Debug("no price found", "site", s.ID)
	return Match{}, false
}

// ExtractProductName returns the first title longer than five characters
// from the site's selectors or the first <h1>, whitespace collapsed and
// capped at 100 characters.
func (r *Registry) ExtractProductName(p *Page, id site.ID) string {
	for _, n := range r.Strategy(id).names {
		if name, ok := usableName(p.Doc.FindMatcher(n.m).First().Text()); ok {
			return name
		}
	}
	if name, ok := usableName(p.Doc.Find("h1").First().Text()); ok {
		return name
	}
	return UnknownProduct
}

func usableName(text string) (string, bool) {
	name := collapse(text)
	if utf8.RuneCountInString(name) <= 5 {
		return "", false
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name, true
}
