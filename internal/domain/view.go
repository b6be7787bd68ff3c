package domain

// FilterAll disables the source or category filter
const FilterAll = "all"

// SortKey selects the ordering of the visible products
type SortKey string

const (
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortRating    SortKey = "rating"
)

// Valid reports whether k is a known sort key
func (k SortKey) Valid() bool {
	switch k {
	case SortPriceLow, SortPriceHigh, SortRating:
		return true
	}
	return false
}

// SearchCriteria holds the user's filter and sort selection
type SearchCriteria struct {
	SearchTerm     string  `json:"searchTerm"`
	SourceFilter   string  `json:"source"`
	CategoryFilter string  `json:"category"`
	SortKey        SortKey `json:"sort"`
}

// DefaultCriteria matches everything and sorts by ascending price
func DefaultCriteria() SearchCriteria {
	return SearchCriteria{
		SourceFilter:   FilterAll,
		CategoryFilter: FilterAll,
		SortKey:        SortPriceLow,
	}
}

// Normalize fills empty fields with their defaults
func (c SearchCriteria) Normalize() SearchCriteria {
	if c.SourceFilter == "" {
		c.SourceFilter = FilterAll
	}
	if c.CategoryFilter == "" {
		c.CategoryFilter = FilterAll
	}
	if c.SortKey == "" {
		c.SortKey = SortPriceLow
	}
	return c
}

// View is the derived, presentation-ready state of a catalog
type View struct {
	Visible    []Product `json:"visible" yaml:"visible"`
	Sources    []string  `json:"sources" yaml:"sources"`
	Categories []string  `json:"categories" yaml:"categories"`
	BestDeal   *Product  `json:"bestDeal" yaml:"bestDeal"`
	Count      int       `json:"count" yaml:"count"`
	Total      int       `json:"total" yaml:"total"`
}
