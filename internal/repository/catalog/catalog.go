// Package catalog stores products and answers lexical and nearest-neighbour
// queries over them, backed by Redis/Valkey or Postgres with pgvector.
package catalog

// lexicalPageSize is the number of prefiltered candidates fetched per lexical round-trip.
const lexicalPageSize = 500
