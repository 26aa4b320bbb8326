package querycache

import (
	"strings"
	"sync"
	"time"
)

// Status tracks the fetch lifecycle of one cached query.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// ErrorInfo is the normalized failure payload surfaced to presentation.
// Cause retains the classified error for errors.Is/As checks.
type ErrorInfo struct {
	Message string
	Cause   error
}

func (e *ErrorInfo) Error() string { return e.Message }

func (e *ErrorInfo) Unwrap() error { return e.Cause }

// entry is the cached state machine for one key. All mutation happens under
// the cache mutex; flight is non-nil exactly while a loader is running.
type entry struct {
	status     Status
	data       any
	err        *ErrorInfo
	fetchedAt  time.Time
	staleAfter time.Duration
	flight     chan struct{}
}

// Snapshot is a read-only copy of an entry's state.
type Snapshot struct {
	Key        Key
	Status     Status
	Data       any
	Err        *ErrorInfo
	FetchedAt  time.Time
	StaleAfter time.Duration
}

// Cache holds per-key fetch state. Entries are created on first use and
// evicted only by Invalidate; there is no size-based eviction.
//
// Construct one per context (Executor owns one); do not share a process-wide
// instance, so tests and views get isolated state.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
}

// getOrCreate returns the entry for key, creating an idle one if absent.
// Callers must hold c.mu.
func (c *Cache) getOrCreate(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{status: StatusIdle}
		c.entries[key] = e
	}
	return e
}

// Snapshot reports the current state of a key. The second result is false
// when the key has never been requested.
func (c *Cache) Snapshot(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}, false
	}
	return Snapshot{
		Key:        key,
		Status:     e.status,
		Data:       e.data,
		Err:        e.err,
		FetchedAt:  e.fetchedAt,
		StaleAfter: e.staleAfter,
	}, true
}

// IsStale reports whether the key's data is older than its freshness window,
// or was never successfully fetched.
func (c *Cache) IsStale(key Key, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.status != StatusSuccess {
		return true
	}
	return c.staleLocked(e, now)
}

func (c *Cache) staleLocked(e *entry, now time.Time) bool {
	if e.fetchedAt.IsZero() {
		return true
	}
	return now.Sub(e.fetchedAt) > e.staleAfter
}

// Invalidate drops a key so the next Do refetches. The result of any
// in-flight load for the key is discarded with the dropped entry.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidatePrefix drops every key that begins with prefix. It gives
// callers structural invalidation: dropping ("domains", "list") clears all
// cached pages of the domain list at once.
func (c *Cache) InvalidatePrefix(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k == prefix || strings.HasPrefix(string(k), string(prefix)+keySep) {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of tracked keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
