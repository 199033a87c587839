package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopchat/internal/db"
)

// SchemaStatements returns the idempotent DDL for a products table with a
// dim-sized pgvector column.
func SchemaStatements(table string, dim int) ([]string, error) {
	if !isSQLIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dim)
	}
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	discount_percentage DOUBLE PRECISION,
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	num_reviews INTEGER NOT NULL DEFAULT 0,
	count_in_stock INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	embedding vector(%d)
)`, table, dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)", table, table),
	}, nil
}

// VectorLiteral renders v in pgvector text form: [0.1,0.2].
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector parses pgvector text form. An empty string yields nil.
func ParseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed vector literal %q", s)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return []float32{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("vector component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func isSQLIdentifier(s string) bool {
	return db.IsValidIdentifier(s) && !strings.ContainsAny(s, ":-")
}
