package redis

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/shopchat/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, FlavorRedis)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, FlavorRedis)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Error("expected error for empty addrs")
	}
	if _, err := NewStore(Config{Addrs: []string{"localhost:6379"}, Flavor: "memcached"}); err == nil {
		t.Error("expected error for unknown flavor")
	}
}

func TestNewStoreForTest_DefaultFlavor(t *testing.T) {
	if got := NewStoreForTest(nil, "").Flavor(); got != FlavorRedis {
		t.Errorf("flavor = %q, want redis", got)
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "shopchat:products:p1"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c, FlavorRedis)
	err := s.HSet(context.Background(), "shopchat:products:p1", map[string]string{"name": "iPhone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, FlavorRedis)
	err := s.HSet(context.Background(), "k", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "k")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"name":  mock.RedisString("Echo Dot"),
			"price": mock.RedisString("29.99"),
		})))

	s := NewStoreForTest(c, FlavorRedis)
	m, err := s.HGetAll(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["name"] != "Echo Dot" || m["price"] != "29.99" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreForTest(c, FlavorRedis)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_PartialError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	s := NewStoreForTest(c, FlavorRedis)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil, FlavorRedis)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAllMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"f": mock.RedisString("a"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"f": mock.RedisString("b"),
			})),
		})

	s := NewStoreForTest(c, FlavorRedis)
	results, err := s.HGetAllMulti(context.Background(), []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0]["f"] != "a" || results[1]["f"] != "b" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestHGetAllMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil, FlavorRedis) // client not called
	results, err := s.HGetAllMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil, got %v", results)
	}
}

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c, FlavorRedis)
	if err := s.Del(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("key1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0), // cursor=0 means done
				mock.RedisArray(mock.RedisString("key2")),
			))
		}).Times(2)

	s := NewStoreForTest(c, FlavorValkey)
	keys, err := s.Scan(context.Background(), "prefix:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(keys, []string{"key1", "key2"}) {
		t.Fatalf("keys = %v", keys)
	}
}

func TestScan_DeduplicatesKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(7),
					mock.RedisArray(mock.RedisString("p:1"), mock.RedisString("p:2")),
				))
			}
			// a rehash during iteration reports p:2 again
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("p:2"), mock.RedisString("p:3")),
			))
		}).Times(2)

	s := NewStoreForTest(c, FlavorValkey)
	keys, err := s.Scan(context.Background(), "p:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(keys, []string{"p:1", "p:2", "p:3"}) {
		t.Fatalf("keys = %v", keys)
	}
}

func TestHMGetMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HMGET", "k1", "name", "rating"),
			mock.Match("HMGET", "k2", "name", "rating"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisString("Echo Dot"), mock.RedisNil())),
			mock.Result(mock.RedisArray(mock.RedisNil(), mock.RedisNil())), // key gone
		})

	s := NewStoreForTest(c, FlavorValkey)
	got, err := s.HMGetMulti(context.Background(), []string{"k1", "k2"}, []string{"name", "rating"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0]["name"] != "Echo Dot" || len(got[0]) != 1 || len(got[1]) != 0 {
		t.Errorf("got %v", got)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "emb:abc")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c, FlavorRedis)
	data, err := s.Get(context.Background(), "emb:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "emb:abc")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c, FlavorRedis)
	_, err := s.Get(context.Background(), "emb:abc")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "emb:abc")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, FlavorRedis)
	_, err := s.Get(context.Background(), "emb:abc")
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("should not be ErrKeyNotFound for network errors")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name    string
		ttl     time.Duration
		wantLen int
	}{
		{"with expiry", time.Minute, 5}, // SET k v EX 60
		{"no expiry", 0, 3},             // SET k v
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)

			c.EXPECT().
				Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
					return cmd[0] == "SET" && cmd[1] == "k" && cmd[2] == "v" && len(cmd) == tc.wantLen
				})).
				Return(mock.Result(mock.RedisString("OK")))

			s := NewStoreForTest(c, FlavorRedis)
			if err := s.SetWithTTL(context.Background(), "k", []byte("v"), tc.ttl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, FlavorRedis)
	idx, err := db.NewIndex("shopchat:products:idx").
		Prefix("shopchat:products:").
		Tag("category").
		VectorHNSW("vector", 4, db.DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"HASH", "PREFIX", "COSINE", "HNSW", "EF_CONSTRUCTION"} {
		assertContains(t, got, want)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c, FlavorRedis)
	idx := &db.IndexDefinition{
		Name:   "test:idx",
		Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_FullTextByFlavor(t *testing.T) {
	idx, err := db.NewIndex("shopchat:products:idx").
		Prefix("shopchat:products:").
		NoStopWords().
		Text("name", "brand").
		SortableNumeric("rating").
		Vector("vector", 4, db.VectorFlat, db.DistanceCosine).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	tests := []struct {
		flavor  Flavor
		want    []string
		notWant []string
	}{
		{FlavorRedis, []string{"TEXT", "SORTABLE", "STOPWORDS", "name", "brand"}, nil},
		{FlavorValkey, []string{"rating", "NUMERIC", "vector"}, []string{"TEXT", "SORTABLE", "STOPWORDS", "name"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.flavor), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)

			var got []string
			c.EXPECT().
				Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
					got = cmd
					return cmd[0] == "FT.CREATE"
				})).
				Return(mock.Result(mock.RedisString("OK")))

			if err := NewStoreForTest(c, tc.flavor).CreateIndex(context.Background(), idx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tc.want {
				assertContains(t, got, w)
			}
			for _, nw := range tc.notWant {
				if slices.Contains(got, nw) {
					t.Errorf("unexpected %q in args %v", nw, got)
				}
			}
		})
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name   string
		result rueidis.RedisResult
		want   bool
	}{
		{"present", mock.Result(mock.RedisArray(mock.RedisString("index_name"))), true},
		{"absent", mock.Result(mock.RedisError("Unknown Index name")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)

			c.EXPECT().
				Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
				Return(tc.result)

			s := NewStoreForTest(c, FlavorRedis)
			exists, err := s.IndexExists(context.Background(), "test:idx")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exists != tc.want {
				t.Errorf("exists = %v, want %v", exists, tc.want)
			}
		})
	}
}

func TestBuildFieldArgs_AllTypes(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
		want  string
	}{
		{"tag", db.IndexField{Name: "f", Type: db.IndexFieldTag}, "TAG"},
		{"numeric", db.IndexField{Name: "f", Type: db.IndexFieldNumeric}, "NUMERIC"},
		{"tag_with_separator", db.IndexField{Name: "f", Type: db.IndexFieldTag, TagSeparator: "|"}, "SEPARATOR"},
		{"vector_flat", db.IndexField{
			Name: "f", Type: db.IndexFieldVector,
			VectorDim: 128, VectorAlgo: db.VectorFlat,
		}, "FLAT"},
		{"vector_default_metric", db.IndexField{
			Name: "f", Type: db.IndexFieldVector, VectorDim: 8,
		}, "COSINE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := buildFieldArgs(&tc.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertContains(t, args, tc.want)
		})
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	if _, err := buildFieldArgs(&db.IndexField{Name: "", Type: db.IndexFieldTag}); err == nil {
		t.Error("expected error for empty field name")
	}
	if _, err := buildFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldType(99)}); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := buildFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldVector}); err == nil {
		t.Error("expected error for zero vector dim")
	}
}

func assertContains(t *testing.T, args []string, want string) {
	t.Helper()
	if !slices.Contains(args, want) {
		t.Errorf("expected %q in args %v", want, args)
	}
}

// --- search.go tests ---

func TestSearchKNN_RawScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	vec := VectorToBytes([]float32{0.6, 0.8})
	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("shopchat:products:p1"),
			mock.RedisArray(
				mock.RedisString("name"), mock.RedisString("iPhone 11"),
				mock.RedisString("vector"), mock.RedisString(vec),
				mock.RedisString("__vector_score"), mock.RedisString("0.12"),
			),
		)))

	s := NewStoreForTest(c, FlavorRedis)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "shopchat:products:idx",
		Vector:       []float32{1, 0},
		K:            12,
		ReturnFields: []string{"name", "vector"},
		RawScores:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	e := result.Entries[0]
	if e.Score != 0.12 {
		t.Errorf("score = %f, want raw distance 0.12", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("__vector_score should be stripped from fields")
	}
	if v := BytesToVector(e.Fields["vector"]); len(v) != 2 || v[0] != 0.6 || v[1] != 0.8 {
		t.Errorf("vector = %v", v)
	}
	if got[2] != "*=>[KNN 12 @vector $BLOB]" {
		t.Errorf("query = %q", got[2])
	}
	assertContains(t, got, "__vector_score")
	assertContains(t, got, "LIMIT")
}

func TestSearchKNN_SimilarityScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("doc:1"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.1")),
		)))

	s := NewStoreForTest(c, FlavorRedis)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// cosine distance 0.1 maps to similarity 0.9
	if sc := result.Entries[0].Score; sc < 0.89 || sc > 0.91 {
		t.Errorf("expected score ~0.9, got %f", sc)
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, FlavorRedis)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}, K: 10})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if _, err := s.SearchKNN(ctx, &db.KNNQuery{Vector: []float32{0.1}, K: 10}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchKNN(ctx, &db.KNNQuery{IndexName: "idx", K: 10}); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := s.SearchKNN(ctx, &db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}, K: 0}); err == nil {
		t.Error("expected error for k=0")
	}
}

func TestSearchList_Redis(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "*"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("doc:1"),
			mock.RedisArray(mock.RedisString("f"), mock.RedisString("v1")),
			mock.RedisString("doc:2"),
			mock.RedisArray(mock.RedisString("f"), mock.RedisString("v2")),
		)))

	s := NewStoreForTest(c, FlavorRedis)
	result, err := s.SearchList(context.Background(), "idx", "*", 0, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSearchList_ValkeyScanFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && slices.Contains(cmd, "shopchat:products:*")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(
				mock.RedisString("shopchat:products:b"),
				mock.RedisString("shopchat:products:a"),
				mock.RedisString("shopchat:products:c"),
			),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"name":  mock.RedisString("A"),
				"price": mock.RedisString("1"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})), // deleted meanwhile
		})

	s := NewStoreForTest(c, FlavorValkey)
	result, err := s.SearchList(context.Background(), "shopchat:products:idx", "*", 0, 2, []string{"name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
	if len(result.Entries) != 1 || result.Entries[0].Key != "shopchat:products:a" {
		t.Fatalf("entries = %+v", result.Entries)
	}
	if _, ok := result.Entries[0].Fields["price"]; ok {
		t.Error("fields should be limited to the requested ones")
	}
}

func TestSearchCount_Redis(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c, FlavorRedis)
	count, err := s.SearchCount(context.Background(), "idx", "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected 42, got %d", count)
	}
}

func TestSearchCount_ValkeyScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(mock.RedisString("p:1"), mock.RedisString("p:2")),
		)))

	s := NewStoreForTest(c, FlavorValkey)
	count, err := s.SearchCount(context.Background(), "p:idx", "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}
}

func TestSearchText_Redis(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("shopchat:products:p1"),
			mock.RedisArray(mock.RedisString("name"), mock.RedisString("iPhone 11 Pro")),
		))).
		Times(1)

	s := NewStoreForTest(c, FlavorRedis)
	res, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:    "shopchat:products:idx",
		Fields:       []string{"name", "brand"},
		Terms:        []string{"iphone", "11"},
		SortBy:       "rating",
		Limit:        50,
		ReturnFields: []string{"name"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || res.Entries[0].Fields["name"] != "iPhone 11 Pro" {
		t.Errorf("result = %+v", res)
	}
	if got[2] != "@name|brand:(*iphone* *11*)" {
		t.Errorf("query = %q", got[2])
	}
	i := slices.Index(got, "SORTBY")
	if i < 0 || got[i+1] != "rating" || got[i+2] != "DESC" {
		t.Errorf("args = %v, want SORTBY rating DESC", got)
	}
	assertContains(t, got, "50")
}

func TestSearchText_ValkeyOneSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && slices.Contains(cmd, "shopchat:products:*")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(
				mock.RedisString("shopchat:products:c"),
				mock.RedisString("shopchat:products:a"),
				mock.RedisString("shopchat:products:b"),
				mock.RedisString("shopchat:products:a"),
			),
		))).
		Times(1)
	// fields fetched: name, brand, rating
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HMGET", "shopchat:products:a", "name", "brand", "rating"),
			mock.Match("HMGET", "shopchat:products:b", "name", "brand", "rating"),
			mock.Match("HMGET", "shopchat:products:c", "name", "brand", "rating"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisString("Red Running Shoe"), mock.RedisNil(), mock.RedisString("4.1"))),
			mock.Result(mock.RedisArray(mock.RedisString("Blue Sandal"), mock.RedisString("Redwing"), mock.RedisString("4.8"))),
			mock.Result(mock.RedisArray(mock.RedisString("Green Hat"), mock.RedisString("Acme"), mock.RedisString("5"))),
		}).
		Times(1)

	s := NewStoreForTest(c, FlavorValkey)
	res, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:    "shopchat:products:idx",
		Fields:       []string{"name", "brand"},
		Terms:        []string{"red"},
		SortBy:       "rating",
		Limit:        1,
		ReturnFields: []string{"name", "rating"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}
	if len(res.Entries) != 1 || res.Entries[0].Key != "shopchat:products:b" {
		t.Fatalf("entries = %+v, want the better rated match first", res.Entries)
	}
	if _, ok := res.Entries[0].Fields["brand"]; ok {
		t.Error("fields should be limited to the requested ones")
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()
	base := db.TextQuery{IndexName: "idx", Fields: []string{"name"}, Terms: []string{"ok"}, Limit: 1}

	tests := []struct {
		name   string
		mutate func(q *db.TextQuery)
	}{
		{"no index", func(q *db.TextQuery) { q.IndexName = "" }},
		{"no fields", func(q *db.TextQuery) { q.Fields = nil }},
		{"zero limit", func(q *db.TextQuery) { q.Limit = 0 }},
		{"query syntax in term", func(q *db.TextQuery) { q.Terms = []string{"a|b"} }},
		{"uppercase term", func(q *db.TextQuery) { q.Terms = []string{"Phone"} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := base
			tc.mutate(&q)
			if _, err := s.SearchText(ctx, &q); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTextQueryString_NoTermsMatchesAll(t *testing.T) {
	if got := textQueryString([]string{"name"}, nil); got != "*" {
		t.Errorf("got %q", got)
	}
}

func TestIndexKeyPrefix(t *testing.T) {
	if got := IndexKeyPrefix("shopchat:products:idx"); got != "shopchat:products:" {
		t.Errorf("got %q", got)
	}
	if got := IndexKeyPrefix("products"); got != "products:" {
		t.Errorf("got %q", got)
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	v := []float32{1.0, -2.5, 0.125}
	b := VectorToBytes(v)
	if len(b) != 12 {
		t.Fatalf("expected 12 bytes, got %d", len(b))
	}
	if got := BytesToVector(b); !slices.Equal(got, v) {
		t.Errorf("decoded %v, want %v", got, v)
	}
	if got := BytesToVector("abc"); got != nil {
		t.Errorf("truncated blob should decode to nil, got %v", got)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
