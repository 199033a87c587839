package embcache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})

	// touch a so b becomes the eviction candidate
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Put("c", []float32{3})

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestLRU_PutOverwrites(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", []float32{1})
	c.Put("a", []float32{9})

	v, ok := c.Get("a")
	if !ok || v[0] != 9 {
		t.Fatalf("expected last write to win, got %v %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestLRU_PutCopiesInput(t *testing.T) {
	c := NewLRU(1)
	vec := []float32{1, 2}
	c.Put("a", vec)
	vec[0] = 42

	got, _ := c.Get("a")
	if got[0] != 1 {
		t.Errorf("cache entry aliased caller slice: %v", got)
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	if got := NewLRU(0).Cap(); got != DefaultCapacity {
		t.Errorf("cap = %d, want %d", got, DefaultCapacity)
	}
}

func TestLRU_NeverExceedsCapacity(t *testing.T) {
	c := NewLRU(8)
	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("q-%d", (g*100+i)%20)
				c.Put(key, []float32{float32(i)})
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	if c.Len() > 8 {
		t.Errorf("len = %d exceeds capacity", c.Len())
	}
}
