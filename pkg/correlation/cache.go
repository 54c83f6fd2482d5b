// Package correlation maps outbound message identifiers to the game the
// message discussed, so a later reply can be resolved without the user
// restating which game they mean.
//
// Entries live for a fixed TTL and are evicted lazily from the head of an
// insertion-ordered list on every read and write. Because the TTL is the
// same for every entry, insertion order and expiry order coincide, and the
// first live entry found from the head ends the eviction pass. A variable
// TTL would break this, so the TTL is fixed at construction.
package correlation

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/pkg/metrics"
)

// DefaultTTL is the lifetime of an entry when none is configured
const DefaultTTL = 7200 * time.Second

// Entry is the context attached to one outbound message
type Entry struct {
	Key       string
	SubjectID string
	CreatedAt time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// Value returns the extra value stored under name
func (e Entry) Value(name string) (any, bool) {
	v, ok := e.Extra[name]
	return v, ok
}

// Text returns the extra value stored under name, or "" when it is absent
// or not a string.
func (e Entry) Text(name string) string {
	s, _ := e.Extra[name].(string)
	return s
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics reports hits, misses, evictions and size
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for eviction and ordering warnings
func WithLogger(l *logging.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// Cache is an in-memory, insertion-ordered map with a fixed TTL. All
// operations, including eviction, are serialized by a single mutex.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	order   *list.List // of *Entry, oldest at the front
	entries map[string]*list.Element

	now     func() time.Time
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// New creates a cache whose entries live for ttl
func New(ttl time.Duration, opts ...Option) (*Cache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("correlation: ttl must be positive, got %s", ttl)
	}

	c := &Cache{
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
		logger:  logging.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the fixed entry lifetime
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Put stores the context for key, replacing any previous entry. The new
// entry becomes the youngest regardless of where the old one sat.
func (c *Cache) Put(key, subjectID string, extra map[string]any) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictExpired(now)

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	entry := &Entry{
		Key:       key,
		SubjectID: subjectID,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
		Extra:     copyExtra(extra),
	}

	// A clock that steps backwards would let this entry expire before the
	// tail and hide behind it during head eviction.
	if back := c.order.Back(); back != nil {
		tail := back.Value.(*Entry)
		if entry.ExpiresAt.Before(tail.ExpiresAt) {
			c.logger.Warn("context %s would expire before %s, clamping expiry to keep insertion order", key, tail.Key)
			entry.ExpiresAt = tail.ExpiresAt
		}
	}

	c.entries[key] = c.order.PushBack(entry)
	c.reportSize()

	return cloneEntry(entry)
}

// Get returns the live context stored for key. A missing, expired or
// replaced key is reported with ok=false; it is never an error. Reading
// does not extend the entry's lifetime.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpired(c.now())

	el, ok := c.entries[key]
	if !ok {
		if c.metrics != nil {
			c.metrics.ContextMisses.Inc()
		}
		return Entry{}, false
	}

	if c.metrics != nil {
		c.metrics.ContextHits.Inc()
	}
	return cloneEntry(el.Value.(*Entry)), true
}

// Evict removes key explicitly. It reports whether an entry was removed.
func (c *Cache) Evict(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.entries, key)
	c.reportSize()
	return true
}

// Sweep evicts every expired entry at the head and returns how many were
// dropped. Get and Put already do this; Sweep releases memory while the
// cache is idle.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictExpired(c.now())
}

// Len returns the number of entries held, live or not yet evicted
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// evictExpired drops entries from the head while they are expired.
// c.mu must be held.
func (c *Cache) evictExpired(now time.Time) int {
	evicted := 0
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		entry := front.Value.(*Entry)
		if now.Before(entry.ExpiresAt) {
			break
		}
		c.order.Remove(front)
		delete(c.entries, entry.Key)
		evicted++
	}

	if evicted == 0 {
		return 0
	}
	c.logger.Debug("evicted %d expired contexts, %d remain", evicted, c.order.Len())
	if c.metrics != nil {
		c.metrics.ContextEvictions.Add(float64(evicted))
	}
	c.reportSize()
	return evicted
}

func (c *Cache) reportSize() {
	if c.metrics != nil {
		c.metrics.ContextEntries.Set(float64(c.order.Len()))
	}
}

func copyExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func cloneEntry(e *Entry) Entry {
	c := *e
	c.Extra = copyExtra(e.Extra)
	return c
}
