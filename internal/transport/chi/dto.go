package chi

import (
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/usecase/chat"
	"github.com/kailas-cloud/shopchat/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeValidationFailed   = "validation_failed"
	CodeRateLimited        = "rate_limited"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeEmbeddingProvider  = "embedding_provider_error"
	CodeVectorDimMismatch  = "vector_dim_mismatch"
	CodeInternalError      = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body of a successful chat reply.
type ChatResponse struct {
	Answer                string        `json:"answer"`
	Intent                string        `json:"intent"`
	RecommendedProductIDs []string      `json:"recommended_product_ids"`
	Products              []ProductView `json:"products"`
}

// ProductView is the public shape of a product in chat replies.
type ProductView struct {
	ID                 string   `json:"_id"`
	Name               string   `json:"name"`
	Brand              string   `json:"brand"`
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Image              string   `json:"image"`
	Price              float64  `json:"price"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	DiscountPrice      float64  `json:"discount_price"`
	Rating             float64  `json:"rating"`
	NumReviews         int      `json:"num_reviews"`
	CountInStock       int      `json:"count_in_stock"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func chatResponseFromDomain(resp chat.Response) ChatResponse {
	ids := resp.RecommendedIDs
	if ids == nil {
		ids = []string{}
	}
	products := make([]ProductView, len(resp.Products))
	for i := range resp.Products {
		products[i] = productView(&resp.Products[i])
	}
	return ChatResponse{
		Answer:                resp.Answer,
		Intent:                resp.Intent.String(),
		RecommendedProductIDs: ids,
		Products:              products,
	}
}

func productView(p *product.Product) ProductView {
	return ProductView{
		ID:                 p.ID,
		Name:               p.Name,
		Brand:              p.Brand,
		Category:           p.Category,
		Description:        p.Description,
		Image:              p.Image,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		DiscountPrice:      p.DiscountPrice(),
		Rating:             p.Rating,
		NumReviews:         p.NumReviews,
		CountInStock:       p.CountInStock,
	}
}

func healthResponseFromReport(report health.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(report.Status), Checks: checks}
}
