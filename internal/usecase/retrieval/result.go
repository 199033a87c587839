package retrieval

import "github.com/kailas-cloud/shopchat/internal/domain/product"

// Source names the channel that produced a candidate.
type Source string

// Retrieval channels.
const (
	SourceLexical  Source = "lexical"
	SourceSemantic Source = "semantic"
)

// Candidate is a retrieved product with its provenance.
// Distance is the cosine distance to the query; zero for lexical hits.
type Candidate struct {
	Product  product.Product
	Source   Source
	Distance float64
}

// Result is the merged candidate set, lexical hits first.
type Result struct {
	Candidates []Candidate
	// Degraded is set when the semantic channel was skipped because embedding failed.
	Degraded bool
}

// Products returns the candidates' products in order.
func (r Result) Products() []product.Product {
	out := make([]product.Product, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Product
	}
	return out
}

// Count returns the number of candidates from src.
func (r Result) Count(src Source) int {
	n := 0
	for _, c := range r.Candidates {
		if c.Source == src {
			n++
		}
	}
	return n
}
