package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/shopchat/internal/db"
	"github.com/kailas-cloud/shopchat/internal/db/redis"
	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// hashStore is the consumer interface for the Redis/Valkey catalog (ISP).
type hashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// RedisConfig configures key layout and the vector index.
type RedisConfig struct {
	KeyPrefix    string // e.g. "shopchat:products:"
	Dimensions   int
	Algorithm    db.VectorAlgorithm
	HNSWM        int
	HNSWEFConstr int
}

// RedisRepo keeps products as hashes under one prefix with an FT index over them.
type RedisRepo struct {
	store  hashStore
	prefix string
	index  string
	cfg    RedisConfig
}

// NewRedis creates a hash-backed catalog repository.
func NewRedis(s hashStore, cfg RedisConfig) *RedisRepo {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "shopchat:products:"
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisRepo{store: s, prefix: prefix, index: prefix + "idx", cfg: cfg}
}

// IndexName returns the FT index name.
func (r *RedisRepo) IndexName() string { return r.index }

func (r *RedisRepo) key(id string) string { return r.prefix + id }

func (r *RedisRepo) idFromKey(key string) string { return strings.TrimPrefix(key, r.prefix) }

// EnsureSchema creates the FT index when it does not exist yet. Text fields
// are indexed with every word kept so lexical search can prefilter in the store.
func (r *RedisRepo) EnsureSchema(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.index, err)
	}
	if exists {
		return nil
	}

	b := db.NewIndex(r.index).
		Prefix(r.prefix).
		NoStopWords().
		Text(lexicalFields...).
		Numeric(fieldPrice).
		SortableNumeric(fieldRating)
	if r.cfg.Algorithm == db.VectorFlat {
		b = b.Vector(fieldVector, r.cfg.Dimensions, db.VectorFlat, db.DistanceCosine)
	} else {
		b = b.VectorHNSW(fieldVector, r.cfg.Dimensions, db.DistanceCosine, r.cfg.HNSWM, r.cfg.HNSWEFConstr)
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.index, err)
	}
	return nil
}

// Upsert writes products in one pipelined round-trip.
func (r *RedisRepo) Upsert(ctx context.Context, products []product.Product) error {
	items := make([]db.HashSetItem, 0, len(products))
	for i := range products {
		p := &products[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
		}
		items = append(items, db.HashSetItem{Key: r.key(p.ID), Fields: buildHashFields(p)})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset products: %w", err)
	}
	return nil
}

// Get returns a product by ID.
func (r *RedisRepo) Get(ctx context.Context, id string) (product.Product, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return product.Product{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	if len(m) == 0 {
		return product.Product{}, domain.ErrProductNotFound
	}
	return parseHashFields(id, m)
}

// UpdateEmbedding replaces the stored vector of an existing product.
func (r *RedisRepo) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.key(id), map[string]string{fieldVector: redis.VectorToBytes(vec)}); err != nil {
		return fmt.Errorf("hset vector %s: %w", id, err)
	}
	return nil
}

// List returns one page of products and the catalog size.
func (r *RedisRepo) List(ctx context.Context, offset, limit int) ([]product.Product, int, error) {
	res, err := r.store.SearchList(ctx, r.index, "*", offset, limit, attributeFields)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := r.decode(res.Entries)
	if err != nil {
		return nil, 0, err
	}
	return products, res.Total, nil
}

// Count returns the number of stored products.
func (r *RedisRepo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.index, "*")
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Clear deletes every product key. The index is kept.
func (r *RedisRepo) Clear(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan products: %w", err)
	}
	for _, k := range keys {
		if err := r.store.Del(ctx, k); err != nil {
			return 0, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// SearchLexical returns products whose name, brand, category or description
// contains q (case-insensitive), best rated first, at most limit. The store
// narrows candidates by the words of q, best rated first; each candidate is
// then checked for the exact substring. Paging stops once no later candidate
// can enter the top limit.
func (r *RedisRepo) SearchLexical(ctx context.Context, q string, limit int) ([]product.Product, error) {
	if q == "" || limit <= 0 {
		return nil, nil
	}

	query := &db.TextQuery{
		IndexName:    r.index,
		Fields:       lexicalFields,
		Terms:        lexicalTerms(q),
		SortBy:       fieldRating,
		Limit:        lexicalPageSize,
		ReturnFields: attributeFields,
	}

	var matched []product.Product
	for {
		res, err := r.store.SearchText(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("lexical search: %w", err)
		}
		page, err := r.decode(res.Entries)
		if err != nil {
			return nil, err
		}
		for i := range page {
			if matchesText(&page[i], q) {
				matched = append(matched, page[i])
			}
		}
		query.Offset += len(res.Entries)
		if len(res.Entries) < query.Limit || query.Offset >= res.Total || topSettled(matched, page, limit) {
			break
		}
	}

	slices.SortStableFunc(matched, lexicalOrder)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// topSettled reports whether candidates after page, which rate no higher than
// its last entry, can no longer displace the best limit matches.
func topSettled(matched, page []product.Product, limit int) bool {
	if len(matched) < limit || len(page) == 0 {
		return false
	}
	slices.SortStableFunc(matched, lexicalOrder)
	return page[len(page)-1].Rating < matched[limit-1].Rating
}

// SearchSemantic returns the k nearest products to vec with their stored vectors.
func (r *RedisRepo) SearchSemantic(ctx context.Context, vec []float32, k int) ([]product.Product, error) {
	if len(vec) == 0 || k <= 0 {
		return nil, nil
	}
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.index,
		VectorField:  fieldVector,
		Vector:       vec,
		K:            k,
		ReturnFields: append(slices.Clone(attributeFields), fieldVector),
		RawScores:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("knn: %w", err)
	}
	return r.decode(res.Entries)
}

func (r *RedisRepo) decode(entries []db.SearchEntry) ([]product.Product, error) {
	out := make([]product.Product, 0, len(entries))
	for _, e := range entries {
		p, err := parseHashFields(r.idFromKey(e.Key), e.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, p)
	}
	return out, nil
}
