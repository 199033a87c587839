package indexing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// DefaultImage is used for fixture products without an image.
const DefaultImage = "/placeholder.png"

// productNamespace derives stable ids from product names, so reseeding
// overwrites rather than duplicates.
var productNamespace = uuid.MustParse("6f1c3a52-8d0e-4b8a-9f57-2c4d1e0b7a91")

// fixtureFile is the on-disk layout of a product fixture.
type fixtureFile struct {
	Products []fixtureProduct `yaml:"products"`
}

type fixtureProduct struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	Category           string   `yaml:"category"`
	Brand              string   `yaml:"brand"`
	Image              string   `yaml:"image"`
	Price              float64  `yaml:"price"`
	DiscountPercentage *float64 `yaml:"discount_percentage"`
	Rating             float64  `yaml:"rating"`
	NumReviews         int      `yaml:"num_reviews"`
	CountInStock       int      `yaml:"count_in_stock"`
}

// LoadFixture parses a YAML product fixture. Missing ids are derived from the
// product name; products appearing twice under one id keep the first entry.
func LoadFixture(r io.Reader) ([]product.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(f.Products))
	out := make([]product.Product, 0, len(f.Products))
	for i, fp := range f.Products {
		p := fp.toProduct(now)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("fixture product [%d]: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func (fp *fixtureProduct) toProduct(now time.Time) product.Product {
	id := strings.TrimSpace(fp.ID)
	if id == "" && strings.TrimSpace(fp.Name) != "" {
		id = uuid.NewSHA1(productNamespace, []byte(strings.ToLower(strings.TrimSpace(fp.Name)))).String()
	}
	image := fp.Image
	if image == "" {
		image = DefaultImage
	}
	return product.Product{
		ID:                 id,
		Name:               strings.TrimSpace(fp.Name),
		Description:        strings.TrimSpace(fp.Description),
		Category:           strings.TrimSpace(fp.Category),
		Brand:              strings.TrimSpace(fp.Brand),
		Image:              image,
		Price:              fp.Price,
		DiscountPercentage: fp.DiscountPercentage,
		Rating:             fp.Rating,
		NumReviews:         fp.NumReviews,
		CountInStock:       fp.CountInStock,
		CreatedAt:          now,
	}
}
