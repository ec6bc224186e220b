package extractor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/use-agent/pricewatch/price"
	"github.com/use-agent/pricewatch/site"
)

func page(t *testing.T, body string) *Page {
	t.Helper()
	p, err := ParseString("<html><head><title>Test product</title></head><body>" + body + "</body></html>")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return p
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name     string
		site     site.Site
		body     string
		want     float64
		wantTier string
	}{
		{
			name:     "amazon offscreen",
			site:     site.Classify("https://www.amazon.in/dp/B0X"),
			body:     `<span class="a-price"><span class="a-offscreen">₹1,299</span></span>`,
			want:     1299,
			wantTier: "selector",
		},
		{
			name:     "amazon price block above fallback ceiling",
			site:     site.Classify("https://www.amazon.in/dp/B0X"),
			body:     `<span id="priceblock_ourprice">₹1,49,900</span>`,
			want:     149900,
			wantTier: "selector",
		},
		{
			name:     "flipkart laptop price",
			site:     site.Lookup(site.Flipkart),
			body:     `<div class="_30jeq3">₹1,24,990</div>`,
			want:     124990,
			wantTier: "selector",
		},
		{
			name:     "croma selector has no ceiling",
			site:     site.Lookup(site.Croma),
			body:     `<span class="pdp-price">₹1,15,000</span>`,
			want:     115000,
			wantTier: "selector",
		},
		{
			name: "amazon floor pushes to section scan",
			site: site.Classify("https://www.amazon.in/dp/B0X"),
			body: `<span class="a-price"><span class="a-offscreen">₹99</span></span>
				<div id="ppd">Delivery ₹500. Deal of the day ₹2,499 M.R.P. ₹3,999</div>`,
			want:     2499,
			wantTier: "section",
		},
		{
			name:     "amazon us uses dollar symbol",
			site:     site.Classify("https://www.amazon.com/dp/B0X"),
			body:     `<p>List $1,299.00</p><p>Now $1,099.00</p><p>Buy for $1,099.00</p>`,
			want:     1099,
			wantTier: "frequency",
		},
		{
			name:     "flipkart main price",
			site:     site.Lookup(site.Flipkart),
			body:     `<div class="_30jeq3">₹15,999</div><div class="_3I9_wc">₹19,999</div>`,
			want:     15999,
			wantTier: "selector",
		},
		{
			name:     "target majority vote",
			site:     site.Lookup(site.Target),
			body:     `<p>$49.99 shipping, $129.99 item, $129.99 listed, $129.99 special</p>`,
			want:     129.99,
			wantTier: "frequency",
		},
		{
			name:     "denylisted decoys never win",
			site:     site.Lookup(site.Ajio),
			body:     `<p>₹499 off</p><p>₹499 coupon</p><p>₹499 cashback</p><p>₹1,799</p>`,
			want:     1799,
			wantTier: "frequency",
		},
		{
			name:     "ties go to first seen",
			site:     site.Lookup(site.Croma),
			body:     `<p>₹2,000</p><p>₹1,500</p><p>₹1,500</p><p>₹2,000</p>`,
			want:     2000,
			wantTier: "frequency",
		},
		{
			name:     "symbol split across elements",
			site:     site.Lookup(site.Snapdeal),
			body:     `<p><span>₹</span><span>3,450</span></p>`,
			want:     3450,
			wantTier: "frequency",
		},
		{
			name:     "myntra script payload",
			site:     site.Lookup(site.Myntra),
			body:     `<script>window.__myx = {"pdpData":{"mrp":2999,"sellingPrice":1499}}</script><p>₹2,999</p>`,
			want:     1499,
			wantTier: "script",
		},
		{
			name:     "myntra pricing container",
			site:     site.Lookup(site.Myntra),
			body:     `<div class="pdp-pricing-container-x"><span>₹899</span><span>MRP ₹1,999</span></div>`,
			want:     899,
			wantTier: "section",
		},
		{
			name:     "myntra skips delivery banners",
			site:     site.Lookup(site.Myntra),
			body:     `<p>FREE delivery above ₹1,299</p><p>FREE delivery above ₹1,299</p><p>Price ₹2,199</p>`,
			want:     2199,
			wantTier: "frequency",
		},
		{
			name:     "bestbuy structured range",
			site:     site.Lookup(site.BestBuy),
			body:     `<div class="priceView-customer-price"><span>$349.99</span></div>`,
			want:     349.99,
			wantTier: "selector",
		},
		{
			name:     "generic schema.org content attribute",
			site:     site.Classify("https://shop.example.com/p/1"),
			body:     `<meta itemprop="price" content="129.99"><p>$5 off</p>`,
			want:     129.99,
			wantTier: "selector",
		},
		{
			name:     "generic price class",
			site:     site.Classify("https://shop.example.com/p/1"),
			body:     `<div class="product-price">$1,249.00</div>`,
			want:     1249,
			wantTier: "selector",
		},
		{
			name:     "generic fallback over all symbols",
			site:     site.Classify("https://shop.example.in/p/1"),
			body:     `<p>€75 shipping</p><p>₹2,400</p><p>₹2,400</p>`,
			want:     2400,
			wantTier: "frequency",
		},
	}

	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := reg.ExtractPrice(page(t, tt.body), tt.site)
			if !ok {
				t.Fatalf("ExtractPrice found nothing, want %v", tt.want)
			}
			if m.Price != tt.want || m.Tier != tt.wantTier {
				t.Errorf("ExtractPrice = %v via %s, want %v via %s", m.Price, m.Tier, tt.want, tt.wantTier)
			}
		})
	}
}

func TestExtractPriceNone(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name string
		site site.Site
		body string
	}{
		{"no amounts", site.Lookup(site.Amazon), `<p>Currently unavailable.</p>`},
		{"only decoys", site.Lookup(site.Flipkart), `<p>₹499</p><p>₹999</p>`},
		{"out of range", site.Lookup(site.Target), `<p>$25,000</p>`},
		{"wrong symbol", site.Lookup(site.Walmart), `<p>€129.99</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m, ok := reg.ExtractPrice(page(t, tt.body), tt.site); ok {
				t.Errorf("ExtractPrice = %+v, want none", m)
			}
		})
	}
}

func TestResultsStayUnderCeiling(t *testing.T) {
	reg := NewRegistry()
	body := `<div class="price">$1,250,000</div><p>$0.50</p><p>$0.50</p>`
	for _, id := range site.All() {
		if m, ok := reg.ExtractPrice(page(t, body), site.Lookup(id)); ok {
			t.Errorf("%s: got %v via %s, want none", id, m.Price, m.Tier)
		}
	}
}

func TestSelectorCeilings(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name string
		site site.Site
		body string
	}{
		{"bestbuy", site.Lookup(site.BestBuy), `<span itemprop="price">$12,999.00</span>`},
		{"apple", site.Lookup(site.Apple), `<span class="price-value">$10,500</span>`},
		{"mi", site.Lookup(site.Mi), `<div data-price="7999"></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m, ok := reg.ExtractPrice(page(t, tt.body), tt.site); ok {
				t.Errorf("ExtractPrice = %+v, want none above the site ceiling", m)
			}
		})
	}
}

func TestEverySiteHasStrategy(t *testing.T) {
	reg := NewRegistry()
	for _, id := range site.All() {
		if got := reg.Strategy(id).Site; got != id {
			t.Errorf("Strategy(%s).Site = %s", id, got)
		}
	}
	if got := reg.Strategy("nope").Site; got != site.Unknown {
		t.Errorf("unregistered site resolved to %s, want generic", got)
	}
}

func TestTally(t *testing.T) {
	text := "₹1,299 ₹1,299 ₹499 ₹499 ₹499 ₹1,099"
	v, n, ok := Tally(text, []string{"₹"}, price.Range{Min: 50, Max: 100000}, Decoys)
	if !ok || v != 1299 || n != 2 {
		t.Errorf("Tally = (%v, %d, %v), want (1299, 2, true)", v, n, ok)
	}
	v, n, ok = Tally(text, []string{"₹"}, price.Range{Min: 50, Max: 100000}, nil)
	if !ok || v != 499 || n != 3 {
		t.Errorf("Tally without denylist = (%v, %d, %v), want (499, 3, true)", v, n, ok)
	}
	if _, _, ok := Tally("no prices here", []string{"$"}, price.Range{}, nil); ok {
		t.Error("Tally on empty text should find nothing")
	}
}

func TestExtractProductName(t *testing.T) {
	long := strings.Repeat("Ultra Wide Monitor ", 10)
	tests := []struct {
		name string
		id   site.ID
		body string
		want string
	}{
		{"site selector", site.Amazon, `<span id="productTitle">
			Acme   Kettle
			1.5L </span><h1>Other heading</h1>`, "Acme Kettle 1.5L"},
		{"short title falls to h1", site.Amazon, `<span id="productTitle">Pen</span><h1>Acme Fountain Pen</h1>`, "Acme Fountain Pen"},
		{"truncated", site.Flipkart, `<span class="B_NuCI">` + long + `</span>`, strings.TrimSpace(long)[:100]},
		{"unknown site uses default selectors", site.Unknown, `<span id="productTitle">Generic Widget</span>`, "Generic Widget"},
		{"nothing usable", site.Ajio, `<h1>Hi</h1>`, UnknownProduct},
	}
	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.ExtractProductName(page(t, tt.body), tt.id); got != tt.want {
				t.Errorf("ExtractProductName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProductNameRuneSafe(t *testing.T) {
	name := strings.Repeat("मोबाइल ", 30)
	got := NewRegistry().ExtractProductName(page(t, "<h1>"+name+"</h1>"), site.Nykaa)
	if n := len([]rune(got)); n != 100 {
		t.Errorf("rune length = %d, want 100", n)
	}
}

func TestOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	yml := `sites:
  target:
    min_price: 100
    selectors: ["#buy-box .amount"]
  unknown:
    symbols: ["Rs."]
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	reg := NewRegistry()
	if err := reg.Apply(o); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	m, ok := reg.ExtractPrice(page(t, `<div id="buy-box"><span class="amount">$249.00</span></div>`), site.Lookup(site.Target))
	if !ok || m.Price != 249 || m.Source != "#buy-box .amount" {
		t.Errorf("override selector: got %+v, %v", m, ok)
	}
	// $49.99 appears most but is now below the floor.
	m, ok = reg.ExtractPrice(page(t, `<p>$49.99</p><p>$49.99</p><p>$129.99</p>`), site.Lookup(site.Target))
	if !ok || m.Price != 129.99 {
		t.Errorf("override floor: got %+v, %v", m, ok)
	}
	m, ok = reg.ExtractPrice(page(t, `<p>Rs. 1,250</p>`), site.Classify("https://shop.example.in/x"))
	if !ok || m.Price != 1250 {
		t.Errorf("override symbols: got %+v, %v", m, ok)
	}
}

func TestOverridesRejected(t *testing.T) {
	tests := []struct {
		name string
		o    Overrides
	}{
		{"unknown site", Overrides{Sites: map[site.ID]SiteOverride{"nowhere": {MinPrice: 1}}}},
		{"bad selector", Overrides{Sites: map[site.ID]SiteOverride{site.Nike: {Selectors: []string{"[[["}}}}},
		{"inverted range", Overrides{Sites: map[site.ID]SiteOverride{site.Nike: {MinPrice: 500, MaxPrice: 10}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			before := reg.Strategy(site.Nike)
			if err := reg.Apply(&tt.o); err == nil {
				t.Fatal("Apply succeeded, want error")
			}
			if reg.Strategy(site.Nike) != before {
				t.Error("failed Apply must leave the registry untouched")
			}
		})
	}
}

func TestLooksBlocked(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"amazon robot check", `<h4>Enter the characters you see below</h4><p>Sorry, we just need to make sure you're not a robot.</p>`, true},
		{"captcha and access denied", `<p>Access Denied</p><div class="g-recaptcha"></div><p>Please complete the CAPTCHA</p>`, true},
		{"product page", `<h1>Acme Kettle</h1><p>₹1,299</p><p>Add to cart</p>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksBlocked(page(t, tt.body)); got != tt.want {
				t.Errorf("LooksBlocked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisibleTextSkipsScripts(t *testing.T) {
	p := page(t, `<script>var p = "₹9,999";</script><style>.x{}</style><p>₹1,499</p>`)
	if strings.Contains(p.Text(), "9,999") {
		t.Errorf("script text leaked into visible text: %q", p.Text())
	}
	if !strings.Contains(p.Text(), "Test product") {
		t.Errorf("title missing from visible text: %q", p.Text())
	}
	if len(p.Scripts()) != 1 {
		t.Errorf("Scripts() = %d, want 1", len(p.Scripts()))
	}
}
