package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestExecutor() *Executor {
	return NewExecutor(NewCache(), nil)
}

func TestDoCachesSuccess(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("stats")
	var calls atomic.Int32

	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return 42, nil
	}
	opts := Options{StaleAfter: time.Hour, MaxRetries: 1}

	for i := 0; i < 3; i++ {
		got, err := x.Do(context.Background(), key, loader, opts)
		if err != nil {
			t.Fatalf("Do #%d error: %v", i, err)
		}
		if got.(int) != 42 {
			t.Fatalf("Do #%d = %v, want 42", i, got)
		}
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("loader invoked %d times for fresh key, want 1", n)
	}
}

func TestDoConcurrentCallersShareFlight(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("domains", 1, 20)

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "payload", nil
	}
	opts := Options{StaleAfter: time.Hour}

	const callers = 8
	results := make([]any, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = x.Do(context.Background(), key, loader, opts)
		}(i)
	}

	// Let every caller reach the flight before it resolves.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	x.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("loader invoked %d times for concurrent callers, want 1", n)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if results[i].(string) != "payload" {
			t.Fatalf("caller %d = %v", i, results[i])
		}
	}
}

func TestDoConcurrentCallersShareError(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("domains", 2, 20)
	boom := errors.New("backend unreachable")

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return nil, boom
	}
	opts := Options{StaleAfter: time.Hour} // no retries

	var wg sync.WaitGroup
	errsCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := x.Do(context.Background(), key, loader, opts)
			errsCh <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errsCh)

	if n := calls.Load(); n != 1 {
		t.Fatalf("loader invoked %d times, want 1", n)
	}
	for err := range errsCh {
		var info *ErrorInfo
		if !errors.As(err, &info) {
			t.Fatalf("error %v is not *ErrorInfo", err)
		}
		if !errors.Is(info, boom) {
			t.Fatalf("ErrorInfo does not wrap the loader error: %v", info)
		}
	}

	snap, _ := x.Cache().Snapshot(key)
	if snap.Status != StatusError {
		t.Errorf("status after failure = %v, want error", snap.Status)
	}
}

func TestDoRetries(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("flaky")

	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	got, err := x.Do(context.Background(), key, loader, Options{StaleAfter: time.Hour, MaxRetries: 1})
	if err != nil {
		t.Fatalf("Do error despite retry: %v", err)
	}
	if got.(string) != "ok" {
		t.Fatalf("Do = %v", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("loader invoked %d times, want 2", n)
	}
}

func TestDoRevalidatesAfterStale(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("trends", 30)

	var mu sync.Mutex
	fakeNow := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	x.Cache().now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return fakeNow
	}

	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}
	opts := Options{StaleAfter: time.Minute, Policy: ServeStale}

	got, err := x.Do(context.Background(), key, loader, opts)
	if err != nil || got.(int) != 1 {
		t.Fatalf("first Do = %v, %v", got, err)
	}

	// Within the window: cache hit, no loader call.
	got, _ = x.Do(context.Background(), key, loader, opts)
	if got.(int) != 1 || calls.Load() != 1 {
		t.Fatalf("fresh hit invoked loader: got %v after %d calls", got, calls.Load())
	}

	mu.Lock()
	fakeNow = fakeNow.Add(5 * time.Minute)
	mu.Unlock()

	// Past the window with ServeStale: stale value now, revalidation behind.
	got, err = x.Do(context.Background(), key, loader, opts)
	if err != nil {
		t.Fatalf("stale Do error: %v", err)
	}
	if got.(int) != 1 {
		t.Fatalf("stale Do = %v, want previous value 1", got)
	}
	x.Wait()

	if n := calls.Load(); n != 2 {
		t.Fatalf("revalidation did not run: %d calls", n)
	}
	snap, _ := x.Cache().Snapshot(key)
	if snap.Status != StatusSuccess || snap.Data.(int) != 2 {
		t.Errorf("entry after revalidation = %v (%v)", snap.Data, snap.Status)
	}
}

func TestDoWaitFreshBlocksForRevalidation(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("stats")

	var mu sync.Mutex
	fakeNow := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	x.Cache().now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return fakeNow
	}

	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}
	opts := Options{StaleAfter: time.Minute, Policy: WaitFresh}

	if got, _ := x.Do(context.Background(), key, loader, opts); got.(int) != 1 {
		t.Fatalf("first Do = %v", got)
	}

	mu.Lock()
	fakeNow = fakeNow.Add(2 * time.Minute)
	mu.Unlock()

	got, err := x.Do(context.Background(), key, loader, opts)
	if err != nil {
		t.Fatalf("WaitFresh Do error: %v", err)
	}
	if got.(int) != 2 {
		t.Fatalf("WaitFresh Do = %v, want fresh value 2", got)
	}
}

func TestDoRevalidationFailureKeepsData(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("news", 20)

	var mu sync.Mutex
	fakeNow := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	x.Cache().now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return fakeNow
	}

	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return "good", nil
		}
		return nil, errors.New("backend down")
	}
	opts := Options{StaleAfter: time.Minute, Policy: ServeStale}

	if _, err := x.Do(context.Background(), key, loader, opts); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	fakeNow = fakeNow.Add(2 * time.Minute)
	mu.Unlock()

	got, err := x.Do(context.Background(), key, loader, opts)
	if err != nil || got.(string) != "good" {
		t.Fatalf("stale serve = %v, %v", got, err)
	}
	x.Wait()

	snap, _ := x.Cache().Snapshot(key)
	if snap.Status != StatusSuccess {
		t.Errorf("failed revalidation regressed status to %v", snap.Status)
	}
	if snap.Data.(string) != "good" {
		t.Errorf("failed revalidation dropped cached data: %v", snap.Data)
	}
}

func TestDoCallerContextCancellation(t *testing.T) {
	t.Parallel()

	x := newTestExecutor()
	key := MakeKey("slow")

	release := make(chan struct{})
	loader := func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := x.Do(ctx, key, loader, Options{StaleAfter: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller error = %v, want context.Canceled", err)
	}

	// The flight keeps running and stores its result for the next caller.
	close(release)
	x.Wait()
	snap, _ := x.Cache().Snapshot(key)
	if snap.Status != StatusSuccess || snap.Data.(string) != "late" {
		t.Errorf("abandoned flight did not store result: %v (%v)", snap.Data, snap.Status)
	}
}
