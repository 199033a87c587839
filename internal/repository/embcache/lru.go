package embcache

import (
	"container/list"
	"slices"
	"sync"
)

// DefaultCapacity is the number of query embeddings kept in process.
const DefaultCapacity = 512

type lruEntry struct {
	key string
	vec []float32
}

// LRU is a fixed-capacity, concurrency-safe map from query text to embedding.
// The front of order is the most recently used entry.
type LRU struct {
	mu    sync.Mutex
	cap   int
	items map[string]*list.Element
	order *list.List
}

// NewLRU creates a cache holding at most capacity entries; capacity <= 0 uses DefaultCapacity.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU{
		cap:   capacity,
		items: make(map[string]*list.Element, capacity),
		order: list.New(),
	}
}

// Get returns the vector for key and marks it most recently used.
// The returned slice must not be modified.
func (c *LRU) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).vec, true
}

// Put stores a copy of vec under key, evicting the least recently used entry
// when full. Racing puts for one key keep the last write.
func (c *LRU) Put(key string, vec []float32) {
	v := slices.Clone(vec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).vec = v
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, vec: v})
	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
	}
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the capacity.
func (c *LRU) Cap() int { return c.cap }
