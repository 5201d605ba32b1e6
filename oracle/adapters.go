package oracle

import (
	"container/list"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/advgo/resource"
)

// Counting wraps an Oracle and tracks how many vectors and calls went
// through it. Safe for concurrent use.
type Counting struct {
	inner   Oracle
	queries atomic.Int64
	calls   atomic.Int64
}

// Compile-time check
var _ Oracle = (*Counting)(nil)

// NewCounting creates a new Counting oracle.
func NewCounting(inner Oracle) *Counting {
	return &Counting{inner: inner}
}

// Predict implements the Oracle interface.
func (c *Counting) Predict(ctx context.Context, batch [][]float64) ([]int, error) {
	c.calls.Add(1)
	c.queries.Add(int64(len(batch)))

	return c.inner.Predict(ctx, batch)
}

// Queries returns the total number of vectors predicted so far.
func (c *Counting) Queries() int64 {
	return c.queries.Load()
}

// Calls returns the total number of Predict invocations so far.
func (c *Counting) Calls() int64 {
	return c.calls.Load()
}

// Reset zeroes both counters.
func (c *Counting) Reset() {
	c.queries.Store(0)
	c.calls.Store(0)
}

// Cached wraps an Oracle with an LRU memo keyed by the exact vector
// contents. Repeated probes of identical points (common during boundary
// bisection) are answered from memory, and a non-deterministic backend
// is pinned to its first answer for the cache's lifetime.
type Cached struct {
	mu        sync.Mutex
	inner     Oracle
	capacity  int
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key   string
	label int
}

// Compile-time check
var _ Oracle = (*Cached)(nil)

// NewCached creates a new Cached oracle holding up to capacity labels.
func NewCached(inner Oracle, capacity int) *Cached {
	if capacity <= 0 {
		capacity = 1
	}

	return &Cached{
		inner:     inner,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Predict implements the Oracle interface. Only cache misses reach the
// wrapped oracle, as a single batch in input order.
func (c *Cached) Predict(ctx context.Context, batch [][]float64) ([]int, error) {
	labels := make([]int, len(batch))
	keys := make([]string, len(batch))

	var missIdx []int
	var missBatch [][]float64

	c.mu.Lock()
	for i, v := range batch {
		keys[i] = vectorKey(v)
		if ent, ok := c.items[keys[i]]; ok {
			c.hits.Add(1)
			c.evictList.MoveToFront(ent)
			labels[i] = ent.Value.(*cacheEntry).label
			continue
		}
		c.misses.Add(1)
		missIdx = append(missIdx, i)
		missBatch = append(missBatch, v)
	}
	c.mu.Unlock()

	if len(missBatch) == 0 {
		return labels, nil
	}

	missLabels, err := c.inner.Predict(ctx, missBatch)
	if err != nil {
		return nil, err
	}
	if len(missLabels) != len(missBatch) {
		return nil, &ErrLabelCount{Want: len(missBatch), Got: len(missLabels)}
	}

	c.mu.Lock()
	for j, i := range missIdx {
		labels[i] = missLabels[j]
		c.add(keys[i], missLabels[j])
	}
	c.mu.Unlock()

	return labels, nil
}

// add inserts a label under key. Caller must hold c.mu.
func (c *Cached) add(key string, label int) {
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*cacheEntry).label = label
		return
	}

	ent := c.evictList.PushFront(&cacheEntry{key: key, label: label})
	c.items[key] = ent

	for c.evictList.Len() > c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

// Stats returns cache hits and misses so far.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// vectorKey encodes a vector's raw bytes into a map key.
func vectorKey(v []float64) string {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}

	return string(buf)
}

// RateLimited wraps an Oracle and admits queries through the resource
// controller's rate limit before forwarding them.
type RateLimited struct {
	inner Oracle
	rc    *resource.Controller
}

// Compile-time check
var _ Oracle = (*RateLimited)(nil)

// NewRateLimited creates a new RateLimited oracle.
func NewRateLimited(inner Oracle, rc *resource.Controller) *RateLimited {
	return &RateLimited{inner: inner, rc: rc}
}

// Predict implements the Oracle interface.
func (r *RateLimited) Predict(ctx context.Context, batch [][]float64) ([]int, error) {
	if err := r.rc.AcquireQueries(ctx, len(batch)); err != nil {
		return nil, err
	}

	return r.inner.Predict(ctx, batch)
}

// Chunked wraps an Oracle and splits batches larger than size into
// sequential chunks, for backends with a hard batch ceiling.
type Chunked struct {
	inner Oracle
	size  int
}

// Compile-time check
var _ Oracle = (*Chunked)(nil)

// NewChunked creates a new Chunked oracle. A size of 0 or less means
// no chunking.
func NewChunked(inner Oracle, size int) *Chunked {
	return &Chunked{inner: inner, size: size}
}

// Predict implements the Oracle interface.
func (c *Chunked) Predict(ctx context.Context, batch [][]float64) ([]int, error) {
	if c.size <= 0 || len(batch) <= c.size {
		return c.inner.Predict(ctx, batch)
	}

	labels := make([]int, 0, len(batch))
	for start := 0; start < len(batch); start += c.size {
		end := start + c.size
		if end > len(batch) {
			end = len(batch)
		}

		part, err := c.inner.Predict(ctx, batch[start:end])
		if err != nil {
			return nil, err
		}
		if len(part) != end-start {
			return nil, &ErrLabelCount{Want: end - start, Got: len(part)}
		}

		labels = append(labels, part...)
	}

	return labels, nil
}
