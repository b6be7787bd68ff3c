package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopsmart/backend/internal/domain"
)

// leadingNumberRegex matches the numeric score at the start of a rating, e.g. "4.3 out of 5"
var leadingNumberRegex = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)`)

// Derive computes the presentation view of catalog under criteria.
// It is pure: the catalog is never modified and the result shares no
// slices with it.
func Derive(catalog domain.Catalog, criteria domain.SearchCriteria) domain.View {
	criteria = criteria.Normalize()

	visible := filterProducts(catalog, criteria)
	sortProducts(visible, criteria.SortKey)

	return domain.View{
		Visible:    visible,
		Sources:    facet(catalog, func(p domain.Product) string { return p.Source }),
		Categories: facet(catalog, func(p domain.Product) string { return p.Category }),
		BestDeal:   bestDeal(visible),
		Count:      len(visible),
		Total:      len(catalog),
	}
}

// filterProducts applies the search term, source and category filters in that order
func filterProducts(catalog domain.Catalog, criteria domain.SearchCriteria) []domain.Product {
	term := strings.ToLower(criteria.SearchTerm)
	visible := make([]domain.Product, 0, len(catalog))

	for _, p := range catalog {
		if term != "" && !strings.Contains(strings.ToLower(p.Title), term) {
			continue
		}
		if criteria.SourceFilter != domain.FilterAll && p.Source != criteria.SourceFilter {
			continue
		}
		if criteria.CategoryFilter != domain.FilterAll && p.Category != criteria.CategoryFilter {
			continue
		}
		visible = append(visible, p)
	}

	return visible
}

// sortProducts orders products in place. Missing prices sort as 0 and
// unparseable ratings as 0.
func sortProducts(products []domain.Product, key domain.SortKey) {
	switch key {
	case domain.SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].PriceOrZero() > products[j].PriceOrZero()
		})
	case domain.SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return ratingScore(products[i].Rating) > ratingScore(products[j].Rating)
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].PriceOrZero() < products[j].PriceOrZero()
		})
	}
}

// ratingScore extracts the leading numeric token of a rating, 0 if there is none
func ratingScore(rating string) float64 {
	match := leadingNumberRegex.FindString(rating)
	if match == "" {
		return 0
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(match), 64)
	if err != nil {
		return 0
	}
	return score
}

// facet lists the distinct values of field in first-seen order, led by "all"
func facet(catalog domain.Catalog, field func(domain.Product) string) []string {
	values := []string{domain.FilterAll}
	seen := map[string]bool{domain.FilterAll: true}

	for _, p := range catalog {
		v := field(p)
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}

	return values
}

// bestDeal picks the cheapest visible product.
//
// The pick only exists when the head of the visible list has a non-zero
// price. Products without a price (or priced 0) never win, and ties keep
// the earlier product.
func bestDeal(visible []domain.Product) *domain.Product {
	if len(visible) == 0 || visible[0].PriceOrZero() == 0 {
		return nil
	}

	best := visible[0]
	for _, p := range visible[1:] {
		price := p.PriceOrZero()
		if price != 0 && price < best.PriceOrZero() {
			best = p
		}
	}

	return &best
}
