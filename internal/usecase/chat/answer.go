package chat

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/shopchat/internal/domain/intent"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// NoMatchAnswer is returned when no candidates survive retrieval.
const NoMatchAnswer = "I couldn't find a close match. Tell me your budget + brand (optional)."

// Synthesize writes a short reply for the ranked products under the given intent.
// The query text is accepted for templates that quote it; current ones do not.
func Synthesize(it intent.Intent, _ string, products []product.Product) string {
	if len(products) == 0 {
		return NoMatchAnswer
	}

	switch it {
	case intent.Compare:
		if len(products) >= 2 {
			return compareAnswer(&products[0], &products[1])
		}
	case intent.Budget:
		p := cheapest(products)
		return fmt.Sprintf("Best budget pick: **%s** (%s). Also check the other options below.",
			p.Name, formatPrice(p.EffectivePrice()))
	case intent.Recommend:
		// rank order, not rating: the re-ranker has already promoted the best domain match
		p := &products[0]
		return fmt.Sprintf("My top recommendation: **%s** (%s, %s). Here are more good matches.",
			p.Name, formatRating(p.Rating), formatPrice(p.EffectivePrice()))
	case intent.Search:
	}

	top := &products[0]
	return fmt.Sprintf("I found %d good matches. Top match: **%s** (%s).",
		len(products), top.Name, formatPrice(top.EffectivePrice()))
}

func compareAnswer(a, b *product.Product) string {
	var sb strings.Builder
	sb.WriteString("Compare:\n")
	for _, p := range []*product.Product{a, b} {
		fmt.Fprintf(&sb, "- %s: %s, %s, stock %d\n",
			p.Name, formatPrice(p.EffectivePrice()), formatRating(p.Rating), p.CountInStock)
	}
	sb.WriteString("Tell me what matters most (price / performance / battery / brand).")
	return sb.String()
}

// cheapest returns the product with the lowest effective price; ties keep the earlier one.
func cheapest(products []product.Product) *product.Product {
	best := &products[0]
	for i := 1; i < len(products); i++ {
		if products[i].EffectivePrice() < best.EffectivePrice() {
			best = &products[i]
		}
	}
	return best
}

func formatPrice(v float64) string { return fmt.Sprintf("৳%.2f", v) }

func formatRating(v float64) string { return fmt.Sprintf("⭐%.1f", v) }
