package domain

// NotAvailable is the sentinel the job service uses for absent text fields
const NotAvailable = "N/A"

// Product is one listing from one source
type Product struct {
	Title    string   `json:"title" yaml:"title"`
	Price    string   `json:"price" yaml:"price"`         // display text, e.g. "₹49,999"
	PriceNum *float64 `json:"price_num" yaml:"price_num"` // nil when the source price could not be parsed
	Source   string   `json:"source" yaml:"source"`       // site display name, e.g. "Flipkart"
	Category string   `json:"category" yaml:"category"`
	Rating   string   `json:"rating" yaml:"rating"` // "4.3 out of 5 stars" or "N/A"
	Offers   string   `json:"offers" yaml:"offers"`
	Image    string   `json:"image" yaml:"image"`
	URL      string   `json:"url" yaml:"url"`
}

// HasPrice reports whether the product carries a parsed price
func (p Product) HasPrice() bool {
	return p.PriceNum != nil
}

// PriceOrZero returns the parsed price, or 0 when absent
func (p Product) PriceOrZero() float64 {
	if p.PriceNum == nil {
		return 0
	}
	return *p.PriceNum
}

// Catalog is the ordered result set of one completed job, in arrival order
type Catalog []Product

// Clone returns a copy that shares no backing array with c
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}

// Site is one external catalog the job service can search
type Site struct {
	ID   string `json:"id" mapstructure:"id" yaml:"id"`
	Name string `json:"name" mapstructure:"name" yaml:"name"`
}

// DefaultSites is the reference deployment's site set
func DefaultSites() []Site {
	return []Site{
		{ID: "flipkart", Name: "Flipkart"},
		{ID: "amazon", Name: "Amazon"},
		{ID: "vijay_sales", Name: "Vijay Sales"},
		{ID: "jiomart", Name: "JioMart"},
		{ID: "croma", Name: "Croma"},
	}
}
