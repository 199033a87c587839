// Package product holds the read-only catalog view used by retrieval and ranking.
package product

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Product is a catalog item as seen by the assistant.
type Product struct {
	ID                 string
	Name               string
	Description        string
	Category           string
	Brand              string
	Image              string
	Price              float64
	DiscountPercentage *float64 // nil: no discount
	Rating             float64
	NumReviews         int
	CountInStock       int
	CreatedAt          time.Time
	Embedding          []float32 // nil: not indexed for semantic search
}

// HasDiscount reports whether a discount percentage is set.
func (p *Product) HasDiscount() bool {
	return p.DiscountPercentage != nil
}

// DiscountPrice returns the price after the discount, clamped so it never exceeds Price.
func (p *Product) DiscountPrice() float64 {
	if p.DiscountPercentage == nil {
		return p.Price
	}
	pct := math.Min(math.Max(*p.DiscountPercentage, 0), 100)
	return roundCents(p.Price * (1 - pct/100))
}

// EffectivePrice is the discounted price when a discount is set, else the list price.
func (p *Product) EffectivePrice() float64 {
	if p.HasDiscount() {
		return p.DiscountPrice()
	}
	return p.Price
}

// HasEmbedding reports whether the product can take part in semantic retrieval.
func (p *Product) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// EmbeddingText composes the text that is vectorized for this product.
func (p *Product) EmbeddingText() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.Name, p.Brand, p.Category, p.Description} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

// Validate checks write-path invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %s: name is required", p.ID)
	}
	if p.Price < 0 {
		return fmt.Errorf("product %s: price must be non-negative, got %g", p.ID, p.Price)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("product %s: rating must be within [0, 5], got %g", p.ID, p.Rating)
	}
	if d := p.DiscountPercentage; d != nil && (*d < 0 || *d > 100) {
		return fmt.Errorf("product %s: discount percentage must be within [0, 100], got %g", p.ID, *d)
	}
	return nil
}

// IDs returns the identifiers of products in order.
func IDs(products []Product) []string {
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
