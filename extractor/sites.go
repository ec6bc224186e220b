package extractor

import (
	"github.com/use-agent/pricewatch/price"
	"github.com/use-agent/pricewatch/site"
)

var (
	inrSymbols    = []string{"₹"}
	usdSymbols    = []string{"$"}
	westSymbols   = []string{"$", "£", "€"}
	worldSymbols  = []string{"$", "£", "€", "₹"}
	sectionDecoys = []float64{250, 350, 450, 500, 550, 650, 750}
)

func rng(min, max float64) price.Range { return price.Range{Min: min, Max: max} }

// floor accepts anything from min up to the global ceiling.
func floor(min float64) price.Range { return price.Range{Min: min} }

// simple is the common shape: three or so selectors bounded by the site's
// floor only, then the frequency vote bounded by the full range.
func simple(id site.ID, r price.Range, symbols, names []string, sels ...string) *Strategy {
	return newStrategy(id, names, Fallback{Range: r, Symbols: symbols}, Selectors(floor(r.Min), sels...))
}

func builtinStrategies() []*Strategy {
	return []*Strategy{
		newStrategy(site.Amazon,
			[]string{"#productTitle", ".a-size-extra-large", "h1#title"},
			Fallback{Range: rng(200, 100000)},
			Selectors(floor(200),
				"#priceblock_ourprice", "#priceblock_dealprice", "#priceblock_saleprice", ".a-price .a-offscreen"),
			Section(rng(200, 100000), sectionDecoys, "#ppd", "#centerCol", "#twotabsearchtextgrid"),
		),
		newStrategy(site.Flipkart,
			[]string{"h1._30jeq3", "span.B_NuCI", `[data-testid="product-title"]`},
			Fallback{Range: rng(200, 100000)},
			Selectors(floor(200),
				"div._30jeq3", `[data-testid="price"]`, "div._16P6d", "div._3I9_wc", "._3OtPd"),
			Section(rng(200, 100000), sectionDecoys, "div._1Yok6V", "div._2B099h"),
		),
		newStrategy(site.Myntra,
			[]string{"h1.pdp-title", ".pdp-name", `[class*="pdp-title"]`},
			Fallback{
				Range:              rng(100, 100000),
				Symbols:            inrSymbols,
				SkipTextContaining: []string{"FREE", "DELIVERY", "SHIPPING"},
			},
			Scripts(rng(200, 100000),
				`sellingPrice["']?\s*:\s*([\d.]+)`,
				`"sp"\s*:\s*([\d.]+)`,
				`(?i)(?:discountedPrice|offerPrice|finalPrice|fp)["']?\s*:\s*([\d.]+)`,
			),
			Section(rng(100, 100000), nil, `[class*="pdp-pricing-container"]`),
			&SelectorTier{Range: rng(100, 100000), Scan: true, sels: mustSelectors([]string{
				`[class*="selling-price"]`, `[class*="sellingPrice"]`, `[class*="final-price"]`,
				`[class*="current-price"]`, ".pdp__selling-price", ".pdp-selling-price",
				"span.discounted-price", ".pdp-price-info", ".pdp-pricing", ".PriceCard",
				`[data-testid="pdp-price"]`,
			})},
		),

		simple(site.Ajio, rng(50, 100000), AllSymbols,
			[]string{".prod-name", `h1[itemprop="name"]`, ".product-title"},
			".prod-sp", ".price", `[class*="current-price"]`),
		simple(site.Meesho, rng(50, 50000), AllSymbols,
			[]string{"h2.sc-fznxsB", `[class*="product-name"]`, "h1"},
			`[class*="Price"]`, `[class*="price"]`),
		simple(site.Snapdeal, rng(50, 100000), AllSymbols,
			[]string{".pdp-e-i-name", `h1[itemprop="name"]`},
			".pdp-final-price", `[class*="price"]`, ".sp-info"),
		simple(site.TataCliq, rng(100, 100000), AllSymbols,
			[]string{".pdp-title", `h1[class*="title"]`},
			`[class*="pdp-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.RelianceDigital, rng(100, 100000), AllSymbols,
			[]string{".pdp__productName", `h1[itemprop="name"]`},
			`[class*="pdp__price"]`, `[class*="price"]`, ".final-price"),
		simple(site.Croma, rng(100, 100000), AllSymbols,
			[]string{".pdp__productName", `h1[itemprop="name"]`},
			`[class*="pdp-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.Nykaa, rng(50, 100000), AllSymbols,
			[]string{".pdp-name", `h1[itemprop="name"]`},
			`[class*="pdp-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.Shopsy, rng(50, 50000), AllSymbols,
			[]string{".product-name", `h2[class*="name"]`},
			`[class*="price"]`, ".final-price", `[class*="Price"]`),
		simple(site.FirstCry, rng(50, 50000), AllSymbols,
			[]string{".pdp_product_name", `h1[class*="product-name"]`, ".product-title"},
			`[class*="selling-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.Pepperfry, rng(100, 100000), AllSymbols,
			[]string{".prod-title", `h1[class*="title"]`, ".product-name"},
			`[class*="selling-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.UrbanLadder, rng(100, 100000), AllSymbols,
			[]string{".product-title", `h1[class*="product"]`, ".product-name"},
			`[class*="selling-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.BigBasket, rng(10, 10000), AllSymbols,
			[]string{".product-title", `h1[class*="product"]`, ".product-name"},
			`[class*="sp"]`, `[class*="price"]`, ".final-price"),
		simple(site.JioMart, rng(50, 100000), AllSymbols,
			[]string{".prod-name", `h1[class*="product"]`, ".product-title"},
			`[class*="selling-price"]`, `[class*="price"]`, ".final-price"),
		simple(site.OnePlus, rng(500, 100000), AllSymbols,
			[]string{".product-name", `h1[class*="product"]`, ".name"},
			`[class*="price"]`, ".final-price", `[class*="Price"]`),
		simple(site.VijaySales, rng(100, 100000), AllSymbols,
			[]string{".product-name", `h1[class*="product"]`, ".prod-name"},
			`[class*="price"]`, ".final-price", `[class*="Price"]`),

		simple(site.Ebay, rng(10, 10000), worldSymbols,
			[]string{".x-item-title", `h1[itemprop="name"]`, ".product-title"},
			`[class*="price"]`, ".vi-price", `[itemprop="price"]`),
		simple(site.AliExpress, rng(10, 5000), westSymbols,
			[]string{".product-name", `h1[class*="product"]`, ".title"},
			`[class*="price"]`, ".product-price", `[class*="current-price"]`),
		simple(site.Walmart, rng(10, 10000), usdSymbols,
			[]string{".product-title", `h1[class*="product"]`, ".prod-title"},
			`[class*="price"]`, `[data-automation="product-price"]`, ".price-characteristic"),
		newStrategy(site.BestBuy,
			[]string{".sku-title", `h1[itemprop="name"]`, ".product-name"},
			Fallback{Range: rng(50, 10000), Symbols: usdSymbols},
			Selectors(rng(10, 10000),
				`[data-automation="buybox-price"]`, ".priceView-customer-price span", ".priceView-price",
				`[itemprop="price"]`, ".price"),
		),
		simple(site.Target, rng(10, 10000), usdSymbols,
			[]string{".product-title", `h1[class*="product"]`, ".prod-name"},
			`[class*="price"]`, `[data-test="product-price"]`, ".price"),
		simple(site.Etsy, rng(10, 5000), westSymbols,
			[]string{".product-title", `h1[itemprop="name"]`, ".title"},
			`[class*="price"]`, `[itemprop="price"]`, ".currency-value"),
		simple(site.Newegg, rng(10, 10000), usdSymbols,
			[]string{".product-title", `h1[itemprop="name"]`, ".title"},
			`[class*="price"]`, ".price", `[itemprop="price"]`),
		simple(site.Shein, rng(10, 5000), westSymbols,
			[]string{".goods-title", `h1[class*="product"]`, ".product-name"},
			`[class*="price"]`, ".salePrice", `[class*="current-price"]`),
		simple(site.Zara, rng(10, 5000), westSymbols,
			[]string{".product-name", `h1[class*="product"]`, ".name"},
			`[class*="price"]`, ".price", `[data-testid="price"]`),
		simple(site.HM, rng(10, 5000), westSymbols,
			[]string{".product-name", `h1[itemprop="name"]`, ".title"},
			`[class*="price"]`, ".price", `[data-testid="price"]`),
		simple(site.Adidas, rng(10, 5000), westSymbols,
			[]string{".product-name", `h1[itemprop="name"]`, ".title"},
			`[class*="price"]`, ".price", `[itemprop="price"]`),
		simple(site.Nike, rng(10, 5000), westSymbols,
			[]string{".product-name", `h1[itemprop="name"]`, ".title"},
			`[class*="price"]`, ".price", `[itemprop="price"]`),
		simple(site.Samsung, rng(10, 10000), westSymbols,
			[]string{".product-name", `h1[itemprop="name"]`, ".title"},
			`[class*="price"]`, ".price", `[itemprop="price"]`),
		newStrategy(site.Apple,
			[]string{".product-name", `h1[itemprop="name"]`, ".section__title"},
			Fallback{Range: rng(100, 10000), Symbols: usdSymbols},
			Selectors(rng(50, 10000),
				`[data-component="price"]`, ".as-priceprice", ".price-value", `[itemprop="price"]`, `[class*="price"]`),
		),
		newStrategy(site.Mi,
			[]string{".product-name", `h1[itemprop="name"]`, ".title"},
			Fallback{Range: rng(30, 5000), Symbols: worldSymbols},
			Selectors(rng(20, 5000),
				"[data-price]", ".price", ".product-price", `[itemprop="price"]`, `[class*="price"]`),
		),
	}
}

// genericStrategy serves sites without a dedicated entry: schema.org and
// OpenGraph price markup, then any price-classed element, then the
// frequency vote over all symbols.
func genericStrategy() *Strategy {
	r := rng(50, 100000)
	return newStrategy(site.Unknown,
		[]string{"#productTitle", ".a-size-extra-large", "h1#title"},
		Fallback{Range: r, Symbols: AllSymbols},
		Selectors(floor(r.Min),
			`[itemprop="price"]`, `meta[property="product:price:amount"]`, `meta[property="og:price:amount"]`,
			`[class*="price"]`),
	)
}
