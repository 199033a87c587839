// Package db holds the storage vocabulary shared by the Redis/Valkey and
// Postgres drivers: index definitions, search queries and results, errors.
package db

import "context"

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}
