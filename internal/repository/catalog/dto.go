package catalog

import (
	"cmp"
	"fmt"
	"strconv"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/shopchat/internal/db/redis"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// Hash field names.
const (
	fieldID           = "id"
	fieldName         = "name"
	fieldDescription  = "description"
	fieldCategory     = "category"
	fieldBrand        = "brand"
	fieldImage        = "image"
	fieldPrice        = "price"
	fieldDiscount     = "discount_percentage"
	fieldRating       = "rating"
	fieldNumReviews   = "num_reviews"
	fieldCountInStock = "count_in_stock"
	fieldCreatedAt    = "created_at"
	fieldVector       = "vector"
)

// attributeFields are all stored fields except the vector.
var attributeFields = []string{
	fieldID, fieldName, fieldDescription, fieldCategory, fieldBrand, fieldImage,
	fieldPrice, fieldDiscount, fieldRating, fieldNumReviews, fieldCountInStock, fieldCreatedAt,
}

// buildHashFields converts a product into a flat map for HSET. The vector is
// written only when present so attribute updates keep the stored embedding.
func buildHashFields(p *product.Product) map[string]string {
	m := map[string]string{
		fieldID:           p.ID,
		fieldName:         p.Name,
		fieldDescription:  p.Description,
		fieldCategory:     p.Category,
		fieldBrand:        p.Brand,
		fieldImage:        p.Image,
		fieldPrice:        formatFloat(p.Price),
		fieldRating:       formatFloat(p.Rating),
		fieldNumReviews:   strconv.Itoa(p.NumReviews),
		fieldCountInStock: strconv.Itoa(p.CountInStock),
		fieldCreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldDiscount:     "",
	}
	if p.DiscountPercentage != nil {
		m[fieldDiscount] = formatFloat(*p.DiscountPercentage)
	}
	if p.HasEmbedding() {
		m[fieldVector] = redis.VectorToBytes(p.Embedding)
	}
	return m
}

// parseHashFields converts a flat hash back into a product. Missing numeric
// fields read as zero; malformed ones are errors.
func parseHashFields(id string, m map[string]string) (product.Product, error) {
	p := product.Product{
		ID:          id,
		Name:        m[fieldName],
		Description: m[fieldDescription],
		Category:    m[fieldCategory],
		Brand:       m[fieldBrand],
		Image:       m[fieldImage],
	}
	if v := m[fieldID]; v != "" {
		p.ID = v
	}

	var err error
	if p.Price, err = parseFloat(m, fieldPrice); err != nil {
		return product.Product{}, err
	}
	if p.Rating, err = parseFloat(m, fieldRating); err != nil {
		return product.Product{}, err
	}
	if p.NumReviews, err = parseInt(m, fieldNumReviews); err != nil {
		return product.Product{}, err
	}
	if p.CountInStock, err = parseInt(m, fieldCountInStock); err != nil {
		return product.Product{}, err
	}
	if v := m[fieldDiscount]; v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return product.Product{}, fmt.Errorf("field %s: %w", fieldDiscount, err)
		}
		p.DiscountPercentage = &d
	}
	if v := m[fieldCreatedAt]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return product.Product{}, fmt.Errorf("field %s: %w", fieldCreatedAt, err)
		}
		p.CreatedAt = t
	}
	if v, ok := m[fieldVector]; ok {
		p.Embedding = redis.BytesToVector(v)
	}
	return p, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(m map[string]string, field string) (float64, error) {
	v := m[field]
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return f, nil
}

func parseInt(m map[string]string, field string) (int, error) {
	v := m[field]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return n, nil
}

// matchesText reports whether q occurs case-insensitively in any searchable field.
func matchesText(p *product.Product, q string) bool {
	q = strings.ToLower(q)
	for _, f := range []string{p.Name, p.Brand, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// lexicalFields are the text-indexed fields lexical search runs against.
var lexicalFields = []string{fieldName, fieldBrand, fieldCategory, fieldDescription}

// lexicalTerms splits q into the lowercase letter/digit runs the store can
// prefilter on. Runs shorter than two runes are dropped. A field containing q
// contains every returned term inside one of its words.
func lexicalTerms(q string) []string {
	words := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return unicode.IsUpper(r) || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var terms []string
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 || slices.Contains(terms, w) {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// lexicalOrder sorts by rating, then review count, then recency, all descending.
func lexicalOrder(a, b product.Product) int {
	if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
		return c
	}
	if c := cmp.Compare(b.NumReviews, a.NumReviews); c != 0 {
		return c
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}
