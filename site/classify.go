package site

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// abbreviations are short tokens only consulted after every full brand name
// failed to match the host.
var abbreviations = []struct {
	token string
	id    ID
}{
	{"fk", Flipkart},
	{"tata", TataCliq},
	{"reliance", RelianceDigital},
	{"jm", JioMart},
}

// Classify maps a product URL to its retailer and currency. It never fails:
// unrecognised hosts yield an Unknown site priced in INR for Indian domains
// and USD otherwise.
func Classify(rawURL string) Site {
	host := hostname(rawURL)
	if host == "" {
		return Site{ID: Unknown, Currency: USD, Symbol: SymbolUSD}
	}

	suffix, _ := publicsuffix.PublicSuffix(host)
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		brand := strings.TrimSuffix(domain, "."+suffix)
		if e, ok := byBrand[brand]; ok {
			s := e.resolve(suffix)
			if e.id == Amazon {
				s.Homepage = "https://www." + domain + "/"
			}
			return s
		}
	}

	if e, ok := matchSubstring(host); ok {
		return e.resolve(suffix)
	}

	if isIndianSuffix(suffix) {
		return Site{ID: Unknown, Currency: INR, Symbol: SymbolINR}
	}
	return Site{ID: Unknown, Currency: USD, Symbol: SymbolUSD}
}

// resolve picks the currency for a matched retailer from the host's public
// suffix.
func (e entry) resolve(suffix string) Site {
	switch {
	case e.id == Amazon:
		switch {
		case isIndianSuffix(suffix):
			return e.site(INR, SymbolINR)
		case suffix == "co.uk":
			return e.site(GBP, SymbolGBP)
		default:
			return e.site(USD, SymbolUSD)
		}
	case e.indian, isIndianSuffix(suffix):
		return e.site(INR, SymbolINR)
	default:
		return e.site(USD, SymbolUSD)
	}
}

// matchSubstring is the last-resort heuristic for hosts whose registrable
// domain is not a known brand, e.g. regional mirrors or short links.
func matchSubstring(host string) (entry, bool) {
	for _, e := range registry {
		for _, b := range e.brands {
			if len(b) < 3 {
				// "hm" and "mi" are too short to search for inside a host.
				if strings.Contains(host, b+".com") || strings.Contains(host, b+".in") {
					return e, true
				}
				continue
			}
			if strings.Contains(host, b) {
				return e, true
			}
		}
	}
	for _, a := range abbreviations {
		if strings.Contains(host, a.token) {
			return byID[a.id], true
		}
	}
	return entry{}, false
}

func isIndianSuffix(suffix string) bool {
	return suffix == "in" || strings.HasSuffix(suffix, ".in")
}

// hostname extracts the lower-cased host of rawURL, tolerating a missing
// scheme.
func hostname(rawURL string) string {
	s := strings.TrimSpace(strings.ToLower(rawURL))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Hostname(), ".")
}
