package chat

import (
	"context"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/usecase/retrieval"
)

type mockRetriever struct {
	result retrieval.Result
	err    error
	calls  int
	raw    string
}

func (m *mockRetriever) Retrieve(_ context.Context, raw string, _ int) (retrieval.Result, error) {
	m.calls++
	m.raw = raw
	return m.result, m.err
}

func lexicalResult(products ...product.Product) retrieval.Result {
	res := retrieval.Result{}
	for _, p := range products {
		res.Candidates = append(res.Candidates, retrieval.Candidate{Product: p, Source: retrieval.SourceLexical})
	}
	return res
}

// mockCatalog backs a real retrieval.Service in end-to-end tests.
type mockCatalog struct {
	lexical  []product.Product
	semantic []product.Product
}

func (m *mockCatalog) SearchLexical(_ context.Context, _ string, _ int) ([]product.Product, error) {
	return m.lexical, nil
}

func (m *mockCatalog) SearchSemantic(_ context.Context, _ []float32, _ int) ([]product.Product, error) {
	return m.semantic, nil
}

type fixedEmbedder struct {
	vec []float32
}

func (f fixedEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

func pct(v float64) *float64 { return &v }

var (
	airpods = product.Product{
		ID: "airpods", Name: "Airpods Wireless Bluetooth Headphones", Brand: "Apple", Category: "Electronics",
		Description: "Bluetooth technology lets you connect it with compatible devices wirelessly. " +
			"High-quality AAC audio offers immersive listening experience. Built-in microphone allows you to take calls.",
		Price: 89.99, Rating: 4.5, NumReviews: 12, CountInStock: 10,
	}
	iphone = product.Product{
		ID: "iphone", Name: "iPhone 11 Pro 256GB Memory", Brand: "Apple", Category: "Electronics",
		Description: "Introducing the iPhone 11 Pro. A transformative triple-camera system that adds tons of capability.",
		Price: 599.99, Rating: 4.0, NumReviews: 8, CountInStock: 0,
	}
	ps4 = product.Product{
		ID: "ps4", Name: "Sony Playstation 4 Pro White Version", Brand: "Sony", Category: "Electronics",
		Description: "The ultimate home entertainment center starts with PlayStation.",
		Price: 399.99, Rating: 5, NumReviews: 12, CountInStock: 11,
	}
	mouse = product.Product{
		ID: "mouse", Name: "Logitech G-Series Gaming Mouse", Brand: "Logitech", Category: "Electronics",
		Description: "Get a better handle on your games with this Logitech LIGHTSYNC gaming mouse.",
		Price: 49.99, Rating: 3.5, NumReviews: 10, CountInStock: 7,
	}
)
