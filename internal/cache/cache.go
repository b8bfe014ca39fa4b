// Package cache implements an in-memory key-value cache with absolute and
// sliding expiration and priority-ordered compaction.
//
// Storage is a go-cache instance. Entries are also registered with go-cache
// under their absolute deadline so its DeleteExpired drops them even when
// nobody reads them; sliding windows and priorities are evaluated here
// against the configured clock.
package cache

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Writes    uint64 `json:"writes"`
	Evictions uint64 `json:"evictions"`
	Count     int    `json:"count"`
	Size      int64  `json:"size"`
}

// Memory is a concurrency-safe cache of V values keyed by string.
//
// Reads never block each other. Writes, removals and compactions are
// serialized. There is no coordination between a miss and the write that
// follows it: concurrent misses may each compute and store a value, and the
// last write wins.
type Memory[V any] struct {
	cfg   settings
	items *gocache.Cache

	wmu sync.Mutex

	hits      atomic.Uint64
	misses    atomic.Uint64
	writes    atomic.Uint64
	evictions atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a cache and starts its background sweep.
func New[V any](opts ...Option) *Memory[V] {
	cfg := defaultSettings()
	for _, o := range opts {
		o(&cfg)
	}
	c := &Memory[V]{
		cfg:   cfg,
		items: gocache.New(gocache.NoExpiration, 0),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	c.items.OnEvicted(c.onEvicted)
	if cfg.scanInterval > 0 {
		go c.sweeper(cfg.scanInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *Memory[V]) onEvicted(key string, v any) {
	c.evictions.Add(1)
	if e, ok := v.(*entry[V]); ok {
		obs.Logger.Debug("cache_entry_evicted",
			"cache", c.cfg.name,
			"key", key,
			"priority", e.priority.String(),
			"age_ms", c.cfg.now().Sub(e.written).Milliseconds(),
		)
	}
}

// Now returns the time according to the cache clock.
func (c *Memory[V]) Now() time.Time { return c.cfg.now() }

// Get returns the value stored under key. A successful read restarts the
// entry's sliding window.
func (c *Memory[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := c.items.Get(key)
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	e := raw.(*entry[V])
	now := c.cfg.now()
	if e.expired(now) {
		c.removeIfCurrent(key, e)
		c.misses.Add(1)
		return zero, false
	}
	e.touch(now)
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key, replacing any previous entry. When a size
// limit is configured and the write would exceed it, a compaction runs
// first; if there is still no room the value is not stored.
func (c *Memory[V]) Set(key string, value V, opts EntryOptions) {
	now := c.cfg.now()
	e := newEntry(value, opts, now)
	if e.expired(now) {
		return
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.cfg.sizeLimit > 0 && !c.fits(key, e.size) {
		c.compactLocked(c.cfg.compactionPercentage)
		if !c.fits(key, e.size) {
			obs.Logger.Warn("cache_entry_rejected",
				"cache", c.cfg.name,
				"key", key,
				"size", e.size,
				"size_limit", c.cfg.sizeLimit,
			)
			return
		}
	}

	ttl := gocache.NoExpiration
	if !e.deadline.IsZero() {
		ttl = e.deadline.Sub(now)
	}
	c.items.Set(key, e, ttl)
	c.writes.Add(1)
}

// Remove deletes key if present.
func (c *Memory[V]) Remove(key string) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.items.Delete(key)
}

// Count returns the number of stored entries, including expired ones that
// have not been swept yet.
func (c *Memory[V]) Count() int { return c.items.ItemCount() }

// Compact removes expired entries and then enough live entries to reclaim
// fraction of the cache, lowest priority and least recently used first.
// PriorityNeverRemove entries are skipped. It returns the number removed.
func (c *Memory[V]) Compact(fraction float64) int {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.compactLocked(fraction)
}

// Stats returns a snapshot of the counters.
func (c *Memory[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Writes:    c.writes.Load(),
		Evictions: c.evictions.Load(),
		Count:     c.items.ItemCount(),
		Size:      c.totalSize(),
	}
}

// Close stops the background sweep. The cache stays usable.
func (c *Memory[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

type candidate[V any] struct {
	key string
	e   *entry[V]
}

func (c *Memory[V]) compactLocked(fraction float64) int {
	now := c.cfg.now()
	items := c.items.Items()
	target := int(math.Ceil(float64(len(items)) * fraction))

	removed := 0
	var live []candidate[V]
	for k, it := range items {
		e := it.Object.(*entry[V])
		if e.expired(now) {
			c.items.Delete(k)
			removed++
			continue
		}
		if e.priority == PriorityNeverRemove {
			continue
		}
		live = append(live, candidate[V]{key: k, e: e})
	}

	slices.SortFunc(live, func(a, b candidate[V]) int {
		if n := cmp.Compare(a.e.priority, b.e.priority); n != 0 {
			return n
		}
		return a.e.lastAccessed().Compare(b.e.lastAccessed())
	})
	for _, cd := range live {
		if removed >= target {
			break
		}
		c.items.Delete(cd.key)
		removed++
	}
	if removed > 0 {
		obs.Logger.Info("cache_compacted",
			"cache", c.cfg.name,
			"removed", removed,
			"remaining", c.items.ItemCount(),
		)
	}
	return removed
}

// fits reports whether an entry of size n can be stored under key within the
// size limit, not counting the entry it would replace.
func (c *Memory[V]) fits(key string, n int64) bool {
	total := c.totalSize()
	if raw, ok := c.items.Get(key); ok {
		total -= raw.(*entry[V]).size
	}
	return total+n <= c.cfg.sizeLimit
}

func (c *Memory[V]) totalSize() int64 {
	var total int64
	for _, it := range c.items.Items() {
		total += it.Object.(*entry[V]).size
	}
	return total
}

func (c *Memory[V]) removeIfCurrent(key string, e *entry[V]) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if raw, ok := c.items.Get(key); ok && raw.(*entry[V]) == e {
		c.items.Delete(key)
	}
}

// sweeper periodically drops expired entries.
func (c *Memory[V]) sweeper(interval time.Duration) {
	defer close(c.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.sweep()
		}
	}
}

func (c *Memory[V]) sweep() {
	c.items.DeleteExpired()
	now := c.cfg.now()
	c.wmu.Lock()
	defer c.wmu.Unlock()
	for k, it := range c.items.Items() {
		if it.Object.(*entry[V]).expired(now) {
			c.items.Delete(k)
		}
	}
}
