package catalog

import "fmt"

const pgColumns = `id, name, description, category, brand, image, price, discount_percentage,
	rating, num_reviews, count_in_stock, created_at, embedding::text`

// pgQueries holds the SQL for one products table.
type pgQueries struct {
	upsert          string
	get             string
	updateEmbedding string
	list            string
	count           string
	clear           string
	lexical         string
	semantic        string
}

func newPGQueries(table string) pgQueries {
	return pgQueries{
		upsert: fmt.Sprintf(`INSERT INTO %s
	(id, name, description, category, brand, image, price, discount_percentage,
	 rating, num_reviews, count_in_stock, created_at, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::vector)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	category = EXCLUDED.category,
	brand = EXCLUDED.brand,
	image = EXCLUDED.image,
	price = EXCLUDED.price,
	discount_percentage = EXCLUDED.discount_percentage,
	rating = EXCLUDED.rating,
	num_reviews = EXCLUDED.num_reviews,
	count_in_stock = EXCLUDED.count_in_stock,
	embedding = COALESCE(EXCLUDED.embedding, %s.embedding)`, table, table),
		get:             fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, pgColumns, table),
		updateEmbedding: fmt.Sprintf(`UPDATE %s SET embedding = $2::vector WHERE id = $1`, table),
		list:            fmt.Sprintf(`SELECT %s FROM %s ORDER BY id LIMIT $1 OFFSET $2`, pgColumns, table),
		count:           fmt.Sprintf(`SELECT count(*) FROM %s`, table),
		clear:           fmt.Sprintf(`DELETE FROM %s`, table),
		lexical: fmt.Sprintf(`SELECT %s FROM %s
WHERE name ILIKE $1 OR brand ILIKE $1 OR category ILIKE $1 OR description ILIKE $1
ORDER BY rating DESC, num_reviews DESC, created_at DESC
LIMIT $2`, pgColumns, table),
		semantic: fmt.Sprintf(`SELECT %s FROM %s
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1::vector
LIMIT $2`, pgColumns, table),
	}
}
