package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Vector       []float32
	K            int
	ReturnFields []string
	RawScores    bool // return __vector_score as-is (cosine distance) instead of similarity
}

// TextQuery is the input for a term search over TEXT fields. A document
// matches when every term occurs inside one of its words in any of Fields.
// Hits come back ordered by SortBy, descending.
type TextQuery struct {
	IndexName    string
	Fields       []string
	Terms        []string // lowercase letters and digits only
	SortBy       string   // sortable numeric field
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
