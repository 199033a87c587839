package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/shopchat/internal/db"
)

const scoreField = "__vector_score"

// textFetchBatch bounds the hashes fetched per round-trip when Valkey filters in process.
const textFetchBatch = 500

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	field := q.VectorField
	if field == "" {
		field = "vector"
	}
	queryStr := fmt.Sprintf("*=>[KNN %d @%s $BLOB]", q.K, field)

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		ret := append(append([]string{}, q.ReturnFields...), scoreField)
		args = append(args, "RETURN", strconv.Itoa(len(ret)))
		args = append(args, ret...)
	}

	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", VectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw, q.RawScores)
}

// SearchList performs paginated search via FT.SEARCH. On Valkey, query="*"
// falls back to SCAN + HGETALL because valkey-search rejects bare FT.SEARCH without KNN.
func (s *Store) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if query == "*" && s.flavor == FlavorValkey {
		return s.scanList(ctx, index, offset, limit, fields)
	}

	args := []string{index, query, "LIMIT", strconv.Itoa(offset), strconv.Itoa(limit)}

	if len(fields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0, or SCAN on Valkey.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	if query == "*" && s.flavor == FlavorValkey {
		return s.scanCount(ctx, index)
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// SearchText runs a term query over TEXT fields, hits sorted by q.SortBy
// descending. Valkey has no TEXT fields, so there the query is answered from
// one SCAN snapshot of the index prefix, filtered in process.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Fields) == 0 {
		return nil, fmt.Errorf("at least one text field is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	for _, t := range q.Terms {
		if !isSearchTerm(t) {
			return nil, fmt.Errorf("invalid search term %q", t)
		}
	}

	if s.flavor == FlavorValkey {
		return s.scanText(ctx, q)
	}

	args := []string{q.IndexName, textQueryString(q.Fields, q.Terms)}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	if q.SortBy != "" {
		args = append(args, "SORTBY", q.SortBy, "DESC")
	}
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// textQueryString renders terms as infix matches ANDed over the field union:
// "@name|brand:(*red* *shoe*)". No terms matches every document.
func textQueryString(fields, terms []string) string {
	if len(terms) == 0 {
		return "*"
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = "*" + t + "*"
	}
	return "@" + strings.Join(fields, "|") + ":(" + strings.Join(parts, " ") + ")"
}

func isSearchTerm(t string) bool {
	if t == "" {
		return false
	}
	for _, r := range t {
		if unicode.IsUpper(r) || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

type textHit struct {
	entry db.SearchEntry
	sort  float64
}

func (s *Store) scanText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	keys, err := s.Scan(ctx, IndexKeyPrefix(q.IndexName)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan for text search: %w", err)
	}
	sort.Strings(keys)

	load := loadFields(q)
	var hits []textHit
	for start := 0; start < len(keys); start += textFetchBatch {
		chunk := keys[start:min(start+textFetchBatch, len(keys))]
		hashes, err := s.HMGetMulti(ctx, chunk, load)
		if err != nil {
			return nil, fmt.Errorf("fetch for text search: %w", err)
		}
		for i, h := range hashes {
			if len(h) == 0 || !containsTerms(h, q.Fields, q.Terms) {
				continue
			}
			hit := textHit{entry: db.SearchEntry{Key: chunk[i], Fields: pick(h, q.ReturnFields)}}
			if q.SortBy != "" {
				hit.sort, _ = strconv.ParseFloat(h[q.SortBy], 64)
			}
			hits = append(hits, hit)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].sort > hits[j].sort })

	res := &db.SearchResult{Total: len(hits)}
	if q.Offset >= len(hits) {
		return res, nil
	}
	page := hits[q.Offset:min(q.Offset+q.Limit, len(hits))]
	res.Entries = make([]db.SearchEntry, len(page))
	for i := range page {
		res.Entries[i] = page[i].entry
	}
	return res, nil
}

// loadFields is the deduplicated set of hash fields scanText needs per key.
func loadFields(q *db.TextQuery) []string {
	all := append(append(append([]string{}, q.Fields...), q.ReturnFields...), q.SortBy)
	out := make([]string, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for _, f := range all {
		if _, dup := seen[f]; dup || f == "" {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// containsTerms reports whether every term occurs in at least one of fields,
// ignoring case.
func containsTerms(h map[string]string, fields, terms []string) bool {
	lowered := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := h[f]; v != "" {
			lowered = append(lowered, strings.ToLower(v))
		}
	}
	for _, t := range terms {
		found := false
		for _, v := range lowered {
			if strings.Contains(v, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *Store) scanList(
	ctx context.Context, index string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	keys, err := s.Scan(ctx, IndexKeyPrefix(index)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan for list: %w", err)
	}

	sort.Strings(keys) // deterministic ordering

	total := len(keys)
	if offset >= total {
		return &db.SearchResult{Total: total}, nil
	}
	end := min(offset+limit, total)
	pageKeys := keys[offset:end]

	hashes, err := s.HGetAllMulti(ctx, pageKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	entries := make([]db.SearchEntry, 0, len(pageKeys))
	for i, h := range hashes {
		if len(h) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		entries = append(entries, db.SearchEntry{Key: pageKeys[i], Fields: pick(h, fields)})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func (s *Store) scanCount(ctx context.Context, index string) (int, error) {
	keys, err := s.Scan(ctx, IndexKeyPrefix(index)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan for count: %w", err)
	}
	return len(keys), nil
}

// IndexKeyPrefix converts an index name to its key prefix.
// "shopchat:products:idx" -> "shopchat:products:"
func IndexKeyPrefix(index string) string {
	if strings.HasSuffix(index, ":idx") {
		return index[:len(index)-3]
	}
	return index + ":"
}

func pick(m map[string]string, fields []string) map[string]string {
	if len(fields) == 0 {
		return m
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok {
			out[f] = v
		}
	}
	return out
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage, rawScores bool) (*db.SearchResult, error) {
	res, err := parseListResult(raw)
	if err != nil {
		return nil, err
	}

	for i := range res.Entries {
		e := &res.Entries[i]
		scoreStr, ok := e.Fields[scoreField]
		if !ok {
			continue
		}
		if sc, err := strconv.ParseFloat(scoreStr, 64); err == nil {
			if rawScores {
				e.Score = sc
			} else {
				e.Score = max(0, 1.0-sc) // cosine distance → similarity, clamped to [0,1]
			}
		}
		delete(e.Fields, scoreField)
	}

	return res, nil
}

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// VectorToBytes encodes v as little-endian float32, the FT vector blob layout.
func VectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// BytesToVector decodes a little-endian float32 blob. A length that is not a
// multiple of 4 yields nil.
func BytesToVector(s string) []float32 {
	if len(s) == 0 || len(s)%4 != 0 {
		return nil
	}
	out := make([]float32, len(s)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out
}
