package extractor

import (
	"slices"
	"strings"

	"github.com/use-agent/pricewatch/price"
)

// Decoys are amounts that show up on product pages far more often as
// delivery fees, coupon values or accessory upsells than as the product's
// own price. The frequency fallback never selects them.
var Decoys = []float64{
	49, 50, 99, 100, 150, 199, 250, 299, 350, 399, 450, 499,
	500, 550, 599, 650, 699, 750, 799, 850, 899, 950, 999,
}

// AllSymbols is the symbol set used when a site has no narrower one.
var AllSymbols = []string{"₹", "$", "£", "€"}

// Fallback is the last-resort tier: it collects every symbol-prefixed
// amount in the visible page text and picks the one repeated most.
type Fallback struct {
	Range price.Range

	// Symbols limits which currency symbols are recognised. Empty means the
	// classified site symbol.
	Symbols []string

	// SkipTextContaining drops visible text nodes containing any of these
	// upper-case words, e.g. delivery banners.
	SkipTextContaining []string
}

func (f Fallback) Name() string { return "frequency" }

func (f Fallback) Find(p *Page, symbols []string) (Match, bool) {
	if len(f.Symbols) > 0 {
		symbols = f.Symbols
	}
	if len(symbols) == 0 {
		symbols = AllSymbols
	}
	v, _, ok := Tally(f.text(p), symbols, f.Range, Decoys)
	if !ok {
		return Match{}, false
	}
	return Match{Price: v, Tier: f.Name(), Source: strings.Join(symbols, "")}, true
}

func (f Fallback) text(p *Page) string {
	if len(f.SkipTextContaining) == 0 {
		return p.Text()
	}
	nodes := p.TextNodes()
	kept := make([]string, 0, len(nodes))
	for _, n := range nodes {
		upper := strings.ToUpper(n)
		if slices.ContainsFunc(f.SkipTextContaining, func(w string) bool { return strings.Contains(upper, w) }) {
			continue
		}
		kept = append(kept, n)
	}
	return strings.Join(kept, " ")
}

// Tally counts symbol-prefixed amounts in text that fall inside r and are
// not denied, and returns the most frequent one with its count. Ties go to
// the amount that appeared first.
func Tally(text string, symbols []string, r price.Range, deny []float64) (float64, int, bool) {
	var (
		order  []float64
		counts = make(map[float64]int)
	)
	for _, m := range amountPattern(symbols).FindAllStringSubmatch(text, -1) {
		v, ok := price.Parse(m[1])
		if !ok || !r.Contains(v) || slices.Contains(deny, v) {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	var best float64
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, bestCount, bestCount > 0
}
