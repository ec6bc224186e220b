// Package site identifies which retailer a product URL belongs to and the
// currency its prices are quoted in.
package site

// ID names a supported retailer.
type ID string

const (
	Unknown ID = "unknown"

	// Indian retailers.
	Amazon          ID = "amazon"
	Flipkart        ID = "flipkart"
	Myntra          ID = "myntra"
	Ajio            ID = "ajio"
	Meesho          ID = "meesho"
	Snapdeal        ID = "snapdeal"
	TataCliq        ID = "tatacliq"
	RelianceDigital ID = "reliancedigital"
	Croma           ID = "croma"
	Shopsy          ID = "shopsy"
	Nykaa           ID = "nykaa"
	FirstCry        ID = "firstcry"
	Pepperfry       ID = "pepperfry"
	UrbanLadder     ID = "urbanladder"
	BigBasket       ID = "bigbasket"
	JioMart         ID = "jiomart"
	OnePlus         ID = "oneplus"
	VijaySales      ID = "vijaysales"

	// Global retailers.
	Ebay       ID = "ebay"
	AliExpress ID = "aliexpress"
	Walmart    ID = "walmart"
	BestBuy    ID = "bestbuy"
	Target     ID = "target"
	Etsy       ID = "etsy"
	Newegg     ID = "newegg"
	Shein      ID = "shein"
	Zara       ID = "zara"
	HM         ID = "hm"
	Adidas     ID = "adidas"
	Nike       ID = "nike"
	Samsung    ID = "samsung"
	Apple      ID = "apple"
	Mi         ID = "mi"
)

// Currency codes and symbols.
const (
	INR = "INR"
	USD = "USD"
	GBP = "GBP"

	SymbolINR = "₹"
	SymbolUSD = "$"
	SymbolGBP = "£"
)

// Site is the result of classifying a URL.
type Site struct {
	ID       ID     `json:"site"`
	Currency string `json:"currency"`
	Symbol   string `json:"currency_symbol"`

	// Homepage is visited before the product page to collect cookies when
	// Hardened is set. Empty for sites without a known homepage.
	Homepage string `json:"-"`

	// Hardened marks retailers known to run aggressive bot protection.
	Hardened bool `json:"-"`
}

// Known reports whether the site has a dedicated extraction strategy.
func (s Site) Known() bool { return s.ID != Unknown && s.ID != "" }

type entry struct {
	id       ID
	brands   []string // registrable-domain labels, e.g. "amazon" for amazon.co.uk
	indian   bool
	homepage string
	hardened bool
}

// registry is ordered by classification priority. The substring heuristic
// walks it top to bottom, so earlier entries win ambiguous hosts.
var registry = []entry{
	{id: Amazon, brands: []string{"amazon", "amzn"}, indian: true, homepage: "https://www.amazon.in/"},
	{id: Flipkart, brands: []string{"flipkart", "fkrt"}, indian: true, homepage: "https://www.flipkart.com/"},
	{id: Myntra, brands: []string{"myntra"}, indian: true, homepage: "https://www.myntra.com/"},
	{id: Ajio, brands: []string{"ajio"}, indian: true, homepage: "https://www.ajio.com/", hardened: true},
	{id: Meesho, brands: []string{"meesho"}, indian: true, homepage: "https://www.meesho.com/", hardened: true},
	{id: Snapdeal, brands: []string{"snapdeal"}, indian: true, homepage: "https://www.snapdeal.com/", hardened: true},
	{id: TataCliq, brands: []string{"tatacliq"}, indian: true, homepage: "https://www.tatacliq.com/", hardened: true},
	{id: RelianceDigital, brands: []string{"reliancedigital"}, indian: true, homepage: "https://www.reliancedigital.in/", hardened: true},
	{id: Croma, brands: []string{"croma"}, indian: true, homepage: "https://www.croma.com/", hardened: true},
	{id: Shopsy, brands: []string{"shopsy"}, indian: true, homepage: "https://www.shopsy.in/", hardened: true},
	{id: Nykaa, brands: []string{"nykaa"}, indian: true, homepage: "https://www.nykaa.com/", hardened: true},
	{id: FirstCry, brands: []string{"firstcry"}, indian: true, homepage: "https://www.firstcry.com/", hardened: true},
	{id: Pepperfry, brands: []string{"pepperfry"}, indian: true, homepage: "https://www.pepperfry.com/", hardened: true},
	{id: UrbanLadder, brands: []string{"urbanladder"}, indian: true, homepage: "https://www.urbanladder.com/", hardened: true},
	{id: BigBasket, brands: []string{"bigbasket"}, indian: true, homepage: "https://www.bigbasket.com/", hardened: true},
	{id: JioMart, brands: []string{"jiomart"}, indian: true, homepage: "https://www.jiomart.com/", hardened: true},
	{id: OnePlus, brands: []string{"oneplus"}, indian: true, homepage: "https://www.oneplus.in/", hardened: true},
	{id: VijaySales, brands: []string{"vijaysales"}, indian: true, homepage: "https://www.vijaysales.com/", hardened: true},

	{id: Ebay, brands: []string{"ebay"}, homepage: "https://www.ebay.com/", hardened: true},
	{id: AliExpress, brands: []string{"aliexpress"}, homepage: "https://www.aliexpress.com/", hardened: true},
	{id: Walmart, brands: []string{"walmart"}, homepage: "https://www.walmart.com/", hardened: true},
	{id: BestBuy, brands: []string{"bestbuy"}, homepage: "https://www.bestbuy.com/", hardened: true},
	{id: Target, brands: []string{"target"}, homepage: "https://www.target.com/", hardened: true},
	{id: Etsy, brands: []string{"etsy"}, homepage: "https://www.etsy.com/", hardened: true},
	{id: Newegg, brands: []string{"newegg"}, homepage: "https://www.newegg.com/", hardened: true},
	{id: Shein, brands: []string{"shein"}, homepage: "https://www.shein.com/", hardened: true},
	{id: Zara, brands: []string{"zara"}, homepage: "https://www.zara.com/", hardened: true},
	{id: HM, brands: []string{"hm"}, homepage: "https://www.hm.com/", hardened: true},
	{id: Adidas, brands: []string{"adidas"}, homepage: "https://www.adidas.com/", hardened: true},
	{id: Nike, brands: []string{"nike"}, homepage: "https://www.nike.com/", hardened: true},
	{id: Samsung, brands: []string{"samsung"}, homepage: "https://www.samsung.com/", hardened: true},
	{id: Apple, brands: []string{"apple"}, homepage: "https://www.apple.com/", hardened: true},
	{id: Mi, brands: []string{"mi", "xiaomi"}, homepage: "https://www.mi.com/", hardened: true},
}

var byID = func() map[ID]entry {
	m := make(map[ID]entry, len(registry))
	for _, e := range registry {
		m[e.id] = e
	}
	return m
}()

var byBrand = func() map[string]entry {
	m := make(map[string]entry)
	for _, e := range registry {
		for _, b := range e.brands {
			m[b] = e
		}
	}
	return m
}()

// All returns every supported site ID in priority order.
func All() []ID {
	ids := make([]ID, 0, len(registry))
	for _, e := range registry {
		ids = append(ids, e.id)
	}
	return ids
}

// Lookup returns the static profile for id in its home currency.
// Unknown IDs resolve to the USD fallback.
func Lookup(id ID) Site {
	e, ok := byID[id]
	if !ok {
		return Site{ID: Unknown, Currency: USD, Symbol: SymbolUSD}
	}
	if e.indian {
		return e.site(INR, SymbolINR)
	}
	return e.site(USD, SymbolUSD)
}

func (e entry) site(currency, symbol string) Site {
	return Site{
		ID:       e.id,
		Currency: currency,
		Symbol:   symbol,
		Homepage: e.homepage,
		Hardened: e.hardened,
	}
}
