package extractor

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/pricewatch/price"
	"github.com/use-agent/pricewatch/site"
)

// SiteOverride tunes one site's built-in strategy.
type SiteOverride struct {
	MinPrice      float64  `yaml:"min_price"`
	MaxPrice      float64  `yaml:"max_price"`
	Selectors     []string `yaml:"selectors"`
	NameSelectors []string `yaml:"name_selectors"`
	Symbols       []string `yaml:"symbols"`
}

// Overrides is the on-disk format of the sites file:
//
//	sites:
//	  amazon:
//	    min_price: 100
//	    selectors: ["#corePrice_feature_div .a-offscreen"]
//	  unknown:
//	    symbols: ["₹", "Rs."]
type Overrides struct {
	Sites map[site.ID]SiteOverride `yaml:"sites"`
}

// LoadOverrides reads a YAML overrides file.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extractor: read overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("extractor: parse overrides %s: %w", path, err)
	}
	return &o, nil
}

// Apply replaces the affected strategies with tuned copies. Unknown site
// IDs and invalid selectors are rejected before anything changes. Apply must
// not run concurrently with extraction.
func (r *Registry) Apply(o *Overrides) error {
	if o == nil {
		return nil
	}
	known := append(site.All(), site.Unknown)
	updated := make(map[site.ID]*Strategy, len(o.Sites))
	for id, ov := range o.Sites {
		if !slices.Contains(known, id) {
			return fmt.Errorf("extractor: override for unknown site %q", id)
		}
		if ov.MinPrice < 0 || ov.MaxPrice < 0 || (ov.MaxPrice > 0 && ov.MinPrice > ov.MaxPrice) {
			return fmt.Errorf("extractor: override for %s has an invalid price range", id)
		}
		s, err := r.Strategy(id).tuned(ov)
		if err != nil {
			return fmt.Errorf("extractor: override for %s: %w", id, err)
		}
		s.Site = id
		updated[id] = s
	}
	for id, s := range updated {
		if id == site.Unknown {
			r.generic = s
			continue
		}
		r.strategies[id] = s
	}
	return nil
}

func (s *Strategy) tuned(ov SiteOverride) (*Strategy, error) {
	out := &Strategy{
		Site:     s.Site,
		Fallback: s.Fallback,
		names:    s.names,
	}
	out.Fallback.Range = retune(out.Fallback.Range, ov)
	if len(ov.Symbols) > 0 {
		out.Fallback.Symbols = slices.Clone(ov.Symbols)
	}

	if len(ov.NameSelectors) > 0 {
		extra, err := compileSelectors(ov.NameSelectors)
		if err != nil {
			return nil, err
		}
		out.names = append(extra, s.names...)
	}

	if len(ov.Selectors) > 0 {
		extra, err := compileSelectors(ov.Selectors)
		if err != nil {
			return nil, err
		}
		out.Tiers = append(out.Tiers, &SelectorTier{Range: out.Fallback.Range, sels: extra})
	}
	for _, t := range s.Tiers {
		out.Tiers = append(out.Tiers, retuneTier(t, ov))
	}
	return out, nil
}

func retuneTier(t Tier, ov SiteOverride) Tier {
	switch v := t.(type) {
	case *SelectorTier:
		c := *v
		c.Range = retune(c.Range, ov)
		return &c
	case *SectionTier:
		c := *v
		c.Range = retune(c.Range, ov)
		return &c
	case *ScriptTier:
		c := *v
		c.Range = retune(c.Range, ov)
		return &c
	default:
		return t
	}
}

func retune(r price.Range, ov SiteOverride) price.Range {
	if ov.MinPrice > 0 {
		r.Min = ov.MinPrice
	}
	if ov.MaxPrice > 0 {
		r.Max = ov.MaxPrice
	}
	return r
}
