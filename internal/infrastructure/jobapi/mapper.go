package jobapi

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopsmart/backend/internal/domain"
)

// wireProduct is a product as the job service emits it. Scraped fields may be
// missing or empty, and price_num may be null, a number or a numeric string.
type wireProduct struct {
	Title    string          `json:"title"`
	Price    string          `json:"price"`
	PriceNum json.RawMessage `json:"price_num"`
	Source   string          `json:"source"`
	Category string          `json:"category"`
	Rating   string          `json:"rating"`
	Offers   string          `json:"offers"`
	Image    string          `json:"image"`
	URL      string          `json:"url"`
}

// MapToCatalog converts wire products to domain products, preserving arrival
// order. Products without a title are dropped; the count is returned.
func MapToCatalog(items []wireProduct) (domain.Catalog, int) {
	catalog := make(domain.Catalog, 0, len(items))
	dropped := 0

	for _, item := range items {
		product, ok := mapProduct(item)
		if !ok {
			dropped++
			continue
		}
		catalog = append(catalog, product)
	}

	return catalog, dropped
}

func mapProduct(item wireProduct) (domain.Product, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" || title == domain.NotAvailable {
		return domain.Product{}, false
	}

	return domain.Product{
		Title:    title,
		Price:    orNotAvailable(item.Price),
		PriceNum: parsePriceNum(item.PriceNum),
		Source:   orNotAvailable(item.Source),
		Category: orNotAvailable(item.Category),
		Rating:   orNotAvailable(item.Rating),
		Offers:   orNotAvailable(item.Offers),
		Image:    orNotAvailable(item.Image),
		URL:      orNotAvailable(item.URL),
	}, true
}

func orNotAvailable(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.NotAvailable
	}
	return s
}

// parsePriceNum returns nil unless raw holds a finite, non-negative number
func parsePriceNum(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil
		}
		value = parsed
	}

	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil
	}
	return &value
}
