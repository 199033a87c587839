package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kailas-cloud/shopchat/internal/db"
	"github.com/kailas-cloud/shopchat/internal/db/postgres"
	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// sqlStore is the consumer interface for the Postgres catalog (ISP).
type sqlStore interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	EnsureSchema(ctx context.Context, table string, dim int) error
}

// PostgresRepo keeps products in one table with a pgvector column.
type PostgresRepo struct {
	store sqlStore
	table string
	dim   int
	q     pgQueries
}

// NewPostgres creates a table-backed catalog repository.
func NewPostgres(s sqlStore, table string, dim int) *PostgresRepo {
	if table == "" {
		table = "products"
	}
	return &PostgresRepo{store: s, table: table, dim: dim, q: newPGQueries(table)}
}

// EnsureSchema creates the extension, table and vector index when missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if err := r.store.EnsureSchema(ctx, r.table, r.dim); err != nil {
		return fmt.Errorf("ensure schema %s: %w", r.table, err)
	}
	return nil
}

// Upsert inserts or updates products in one transaction.
func (r *PostgresRepo) Upsert(ctx context.Context, products []product.Product) (err error) {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
		}
	}

	tx, err := r.store.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range products {
		p := &products[i]
		var vec any
		if p.HasEmbedding() {
			vec = postgres.VectorLiteral(p.Embedding)
		}
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err = tx.ExecContext(ctx, r.q.upsert,
			p.ID, p.Name, p.Description, p.Category, p.Brand, p.Image,
			p.Price, nullFloat(p.DiscountPercentage), p.Rating, p.NumReviews, p.CountInStock,
			createdAt, vec,
		); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("upsert %s: %w", p.ID, err)}
		}
	}

	if err = tx.Commit(); err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// Get returns a product by ID.
func (r *PostgresRepo) Get(ctx context.Context, id string) (product.Product, error) {
	products, err := r.query(ctx, r.q.get, id)
	if err != nil {
		return product.Product{}, err
	}
	if len(products) == 0 {
		return product.Product{}, domain.ErrProductNotFound
	}
	return products[0], nil
}

// UpdateEmbedding replaces the stored vector of an existing product.
func (r *PostgresRepo) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	res, err := r.store.ExecContext(ctx, r.q.updateEmbedding, id, postgres.VectorLiteral(vec))
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("update embedding %s: %w", id, err)}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// List returns one page of products ordered by id and the catalog size.
func (r *PostgresRepo) List(ctx context.Context, offset, limit int) ([]product.Product, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	products, err := r.query(ctx, r.q.list, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Count returns the number of stored products.
func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	rows, err := r.store.QueryContext(ctx, r.q.count)
	if err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, &db.Error{Op: db.OpQuery, Err: err}
		}
	}
	return n, rows.Err()
}

// Clear deletes every product.
func (r *PostgresRepo) Clear(ctx context.Context) (int, error) {
	res, err := r.store.ExecContext(ctx, r.q.clear)
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: err}
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SearchLexical returns products whose name, brand, category or description
// contains q (case-insensitive), best rated first, at most limit.
func (r *PostgresRepo) SearchLexical(ctx context.Context, q string, limit int) ([]product.Product, error) {
	if q == "" || limit <= 0 {
		return nil, nil
	}
	return r.query(ctx, r.q.lexical, "%"+postgres.EscapeLike(q)+"%", limit)
}

// SearchSemantic returns the k nearest products by cosine distance with their stored vectors.
func (r *PostgresRepo) SearchSemantic(ctx context.Context, vec []float32, k int) ([]product.Product, error) {
	if len(vec) == 0 || k <= 0 {
		return nil, nil
	}
	return r.query(ctx, r.q.semantic, postgres.VectorLiteral(vec), k)
}

func (r *PostgresRepo) query(ctx context.Context, q string, args ...any) ([]product.Product, error) {
	rows, err := r.store.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

func scanProduct(rows *sql.Rows) (product.Product, error) {
	var (
		p        product.Product
		discount sql.NullFloat64
		vec      sql.NullString
	)
	if err := rows.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Brand, &p.Image,
		&p.Price, &discount, &p.Rating, &p.NumReviews, &p.CountInStock, &p.CreatedAt, &vec,
	); err != nil {
		return product.Product{}, fmt.Errorf("scan product: %w", err)
	}
	if discount.Valid {
		d := discount.Float64
		p.DiscountPercentage = &d
	}
	if vec.Valid {
		v, err := postgres.ParseVector(vec.String)
		if err != nil {
			return product.Product{}, fmt.Errorf("product %s: %w", p.ID, err)
		}
		p.Embedding = v
	}
	return p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
