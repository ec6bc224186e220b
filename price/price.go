// Package price turns scraped price text into numbers.
package price

import (
	"math"
	"strconv"
	"strings"
)

// Ceiling is the exclusive upper bound for any accepted price.
const Ceiling = 1_000_000

// Parse extracts a price from free-form text such as "₹1,299.00" or
// "$ 49.99". Every character other than a digit or '.' is dropped before
// parsing. The result is accepted only when it is finite and in
// (0, Ceiling). Parse never fails loudly; ok is false for anything else.
func Parse(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v <= 0 || v >= Ceiling {
		return 0, false
	}
	return v, true
}

// Format renders v so that Parse(Format(v)) == v.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Range is an inclusive interval of acceptable prices. A zero Max means no
// upper bound beyond Ceiling.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies within r.
func (r Range) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	if r.Max > 0 && v > r.Max {
		return false
	}
	return v < Ceiling
}
