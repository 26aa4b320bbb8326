package querycache

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Policy selects what a caller sees when cached data exists but is stale.
type Policy int

const (
	// ServeStale returns the cached data immediately and revalidates in the
	// background. Default for list and detail views.
	ServeStale Policy = iota
	// WaitFresh blocks until revalidation completes. First-ever fetches
	// always block regardless of policy.
	WaitFresh
)

// Loader performs the underlying asynchronous operation, typically a
// network call. It must honor ctx cancellation.
type Loader func(ctx context.Context) (any, error)

// Options configure one logical query type. Retry and backoff are explicit
// configuration, not guessed defaults.
type Options struct {
	// StaleAfter bounds data freshness; zero means stale immediately.
	StaleAfter time.Duration
	// MaxRetries is the number of additional loader attempts after the
	// first failure.
	MaxRetries int
	// Backoff is the delay before each retry; BackoffFactor > 1 grows it
	// exponentially per attempt.
	Backoff       time.Duration
	BackoffFactor float64
	// Timeout bounds each loader attempt. Distinct query types may carry
	// distinct timeouts.
	Timeout time.Duration
	Policy  Policy
}

// DefaultOptions mirrors the historical client defaults: a single retry,
// no backoff, serve-stale-while-revalidating.
func DefaultOptions() Options {
	return Options{MaxRetries: 1, Policy: ServeStale}
}

// Executor runs loaders through the cache. Concurrent callers for one key
// share a single in-flight loader and observe the same outcome; loader
// transitions per key are strictly ordered idle -> loading -> success|error,
// and a revalidation never regresses a displayed success state.
type Executor struct {
	cache  *Cache
	logger *log.Logger
	wg     sync.WaitGroup
}

func NewExecutor(cache *Cache, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Executor{cache: cache, logger: logger}
}

// Cache exposes the executor's cache for snapshot reads and invalidation.
func (x *Executor) Cache() *Cache { return x.cache }

// Wait blocks until all background revalidations have settled. Call on
// shutdown (and in tests) to avoid abandoned flights.
func (x *Executor) Wait() { x.wg.Wait() }

// Do resolves key through the cache:
//
//   - fresh success entry: returns cached data without invoking loader;
//   - in-flight load: attaches to it instead of starting a second one;
//   - stale success entry: per Options.Policy, serves stale data while a
//     background flight revalidates, or blocks for the fresh result;
//   - otherwise: runs loader with retry, stores the outcome, returns it.
//
// Failures surface as *ErrorInfo. In-flight loads are not cancelled when
// ctx ends; their results are stored for the next caller.
func (x *Executor) Do(ctx context.Context, key Key, loader Loader, opts Options) (any, error) {
	c := x.cache

	c.mu.Lock()
	e := c.getOrCreate(key)
	now := c.now()

	if e.status == StatusSuccess && !c.staleLocked(e, now) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}

	if e.flight != nil {
		if e.status == StatusSuccess && opts.Policy == ServeStale {
			data := e.data
			c.mu.Unlock()
			return data, nil
		}
		flight := e.flight
		c.mu.Unlock()
		return x.await(ctx, key, flight)
	}

	flight := make(chan struct{})
	e.flight = flight
	hasStale := e.status == StatusSuccess
	staleData := e.data
	if !hasStale {
		e.status = StatusLoading
		e.err = nil
	}
	c.mu.Unlock()

	x.wg.Add(1)
	go x.run(key, e, flight, loader, opts)

	if hasStale && opts.Policy == ServeStale {
		return staleData, nil
	}
	return x.await(ctx, key, flight)
}

// await blocks until the shared flight settles, then reads the outcome.
// A cancelled ctx detaches the caller; the flight keeps running.
func (x *Executor) await(ctx context.Context, key Key, flight chan struct{}) (any, error) {
	select {
	case <-flight:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c := x.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		// Invalidated while in flight.
		return nil, &ErrorInfo{Message: "query invalidated during fetch"}
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.status == StatusSuccess {
		return e.data, nil
	}
	return nil, &ErrorInfo{Message: "query settled without result"}
}

// run executes the loader with retry and finalizes the entry. The loader
// context derives from the executor, not the initiating caller, so results
// arrive even when every subscriber has gone away.
func (x *Executor) run(key Key, e *entry, flight chan struct{}, loader Loader, opts Options) {
	defer x.wg.Done()

	data, err := x.attempt(loader, opts)

	c := x.cache
	c.mu.Lock()
	if err == nil {
		e.data = data
		e.err = nil
		e.status = StatusSuccess
		e.fetchedAt = c.now()
		e.staleAfter = opts.StaleAfter
	} else {
		info := &ErrorInfo{Message: err.Error(), Cause: err}
		e.err = info
		if e.status != StatusSuccess {
			e.status = StatusError
		} else {
			// Revalidation failed: keep serving the last good data.
			x.logger.Warn("revalidation failed, keeping cached data", "key", key.String(), "err", err)
		}
	}
	e.flight = nil
	c.mu.Unlock()

	close(flight)
}

func (x *Executor) attempt(loader Loader, opts Options) (any, error) {
	attempts := opts.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && opts.Backoff > 0 {
			delay := opts.Backoff
			if opts.BackoffFactor > 1 {
				for n := 1; n < i; n++ {
					delay = time.Duration(float64(delay) * opts.BackoffFactor)
				}
			}
			time.Sleep(delay)
		}

		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if opts.Timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}
		data, err := loader(ctx)
		cancel()
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
