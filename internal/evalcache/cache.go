// Package evalcache provides an LRU cache decorator for field evaluations.
//
// Fleets of fixed sensors and replayed topics evaluate the same position
// and time over and over; the synthesis loop is cheap but not free, and
// for the high-resolution model it is roughly a hundred times the
// standard cost. The decorator memoizes successful evaluations keyed by
// the full request.
package evalcache

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/observability"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

// CachedEvaluator wraps an Evaluator with an in-memory LRU cache.
type CachedEvaluator struct {
	inner   domain.Evaluator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedEvaluator creates a cache decorator around an evaluator.
// Metrics may be nil.
func NewCachedEvaluator(inner domain.Evaluator, maxEntries int, metrics *observability.Metrics) *CachedEvaluator {
	return &CachedEvaluator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedEvaluator) Evaluate(req wmm.Request) (wmm.Result, error) {
	// The policy flags change both the outcome and the error, so they are
	// part of the key.
	key := fmt.Sprintf("%.6f|%.6f|%.3f|%.4f|%t|%t",
		req.Latitude, req.Longitude, req.AltitudeKm, req.DecimalYear,
		req.AllowOutsideLifespan, req.StrictZonePolicy)

	if res, ok := c.cache.get(key); ok {
		c.count("hit")
		return res, nil
	}
	c.count("miss")

	res, err := c.inner.Evaluate(req)
	if err != nil {
		// Errors are not cached: strict-zone and lifespan rejections are
		// cheap to recompute and callers may retry with different policy.
		return res, err
	}
	c.cache.put(key, res)
	return res, nil
}

func (c *CachedEvaluator) count(result string) {
	if c.metrics != nil {
		c.metrics.EvalCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a simple thread-safe LRU cache for evaluation results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value wmm.Result
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (wmm.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return wmm.Result{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value wmm.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
