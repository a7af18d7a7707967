// Package pathcache memoises sub-path searches keyed by (start, end, metric).
package pathcache

import (
	"container/list"
	"sync"

	"github.com/jengzang/route-planner-go/internal/spatial"
)

// DefaultCapacity is the cache size used when none is configured.
const DefaultCapacity = 1000

// Key identifies a sub-path search. Metric is "distance" or a transport mode
// for time-weighted searches.
type Key struct {
	Start  string
	End    string
	Metric string
}

// NewKey builds a Key from the rounded identities of start and end.
func NewKey(start, end spatial.Point, metric string) Key {
	return Key{Start: start.Key(), End: end.Key(), Metric: metric}
}

// Entry is a cached search result.
type Entry struct {
	Path     []spatial.Point
	Cost     float64 // meters for distance searches, minutes for time searches
	Fallback bool    // straight-line fallback rather than a network path
}

type element struct {
	key   Key
	entry Entry
}

// Cache is a bounded least-recently-used cache, safe for concurrent use.
// A Cache with capacity 0 stores nothing.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[Key]*list.Element
}

// New creates a cache holding at most capacity entries.
func New(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the entry stored under key.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return Entry{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*element).entry, true
}

// Put stores entry under key, evicting the least recently used entry when full.
func (c *Cache) Put(key Key, entry Entry) {
	if c.capacity == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*element).entry = entry
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&element{key: key, entry: entry})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*element).key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[Key]*list.Element)
}
