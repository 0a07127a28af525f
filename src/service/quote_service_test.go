package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stock-dashboard/src/cache"
	"stock-dashboard/src/helpers"
	"stock-dashboard/src/models"
)

var testPolicy = cache.NewTTLPolicy(60, 300)

func TestFetchQuoteCacheHitSkipsUpstream(t *testing.T) {
	c := cache.NewFreshnessCache()
	primed := models.MQuoteRecord{Symbol: "AAPL", Price: 150, Timestamp: time.Now()}
	c.Set(cache.QuoteKey("AAPL"), primed, time.Minute)

	up := &fakeUpstream{price: 999}
	svc := NewQuoteService(c, up, testPolicy)

	got, err := svc.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if got != primed {
		t.Fatalf("got %+v, want cached %+v", got, primed)
	}
	if n := up.quoteCalls.Load(); n != 0 {
		t.Fatalf("upstream called %d times, want 0", n)
	}
	if svc.Stats().CacheHits != 1 {
		t.Fatalf("stats = %+v", svc.Stats())
	}
}

func TestFetchQuoteMissStoresRecord(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	c := cache.NewFreshnessCache()
	up := &fakeUpstream{price: 150, prev: 120}
	svc := NewQuoteService(c, up, testPolicy, WithClock(func() time.Time { return now }))

	got, err := svc.FetchQuote(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	want := models.MQuoteRecord{Symbol: "AAPL", Price: 150, Change: 30, ChangePercent: 25, Volume: 1000, Timestamp: now}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if _, ok := c.Get(cache.QuoteKey("AAPL")); !ok {
		t.Fatal("record not cached")
	}
}

func TestFetchQuoteRefetchesAfterTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }

	c := cache.NewFreshnessCache(cache.WithClock(clock))
	up := &fakeUpstream{price: 150}
	svc := NewQuoteService(c, up, testPolicy, WithClock(clock))

	if _, err := svc.FetchQuote(context.Background(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	now = now.Add(61 * time.Second)
	mu.Unlock()
	up.set(151.25, nil)

	got, err := svc.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if got.Price != 151.25 || up.quoteCalls.Load() != 2 {
		t.Fatalf("price %v after %d calls", got.Price, up.quoteCalls.Load())
	}
}

func TestFetchQuoteCoalescesConcurrentMisses(t *testing.T) {
	up := &fakeUpstream{price: 410.5, release: make(chan struct{})}
	svc := NewQuoteService(cache.NewFreshnessCache(), up, testPolicy)

	const n = 10
	results := make([]models.MQuoteRecord, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.FetchQuote(context.Background(), "MSFT")
		}(i)
	}

	// let every caller join the flight before upstream answers
	deadline := time.Now().Add(2 * time.Second)
	for up.quoteCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(up.release)
	wg.Wait()

	if calls := up.quoteCalls.Load(); calls != 1 {
		t.Fatalf("upstream called %d times, want 1", calls)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d got %+v, want %+v", i, results[i], results[0])
		}
	}
}

func TestFetchQuoteFailureIsNotCached(t *testing.T) {
	c := cache.NewFreshnessCache()
	up := &fakeUpstream{err: errBoom}
	svc := NewQuoteService(c, up, testPolicy)

	_, err := svc.FetchQuote(context.Background(), "TSLA")
	if !helpers.IsUpstream(err) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("failure was cached")
	}

	up.set(200, nil)
	got, err := svc.FetchQuote(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.Price != 200 || up.quoteCalls.Load() != 2 {
		t.Fatalf("price %v after %d calls", got.Price, up.quoteCalls.Load())
	}
	if svc.Stats().Failures != 1 {
		t.Fatalf("stats = %+v", svc.Stats())
	}
}

func TestFetchQuoteRejectsUnusablePrice(t *testing.T) {
	svc := NewQuoteService(cache.NewFreshnessCache(), &fakeUpstream{price: 0}, testPolicy)
	if _, err := svc.FetchQuote(context.Background(), "X"); !helpers.IsUpstream(err) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
}

func TestFetchQuoteEmptySymbol(t *testing.T) {
	up := &fakeUpstream{price: 1}
	svc := NewQuoteService(cache.NewFreshnessCache(), up, testPolicy)
	if _, err := svc.FetchQuote(context.Background(), "  "); !helpers.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if up.quoteCalls.Load() != 0 {
		t.Fatal("upstream called for empty symbol")
	}
}

func TestFetchQuoteTimeoutIsUpstreamError(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	up := &fakeUpstream{price: 1, release: release, ignore: true}
	svc := NewQuoteService(cache.NewFreshnessCache(), up, testPolicy, WithUpstreamTimeout(20*time.Millisecond))

	_, err := svc.FetchQuote(context.Background(), "SLOW")
	if !helpers.IsUpstream(err) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
}

func TestCancelledCallerDoesNotCancelSharedFetch(t *testing.T) {
	up := &fakeUpstream{price: 99, release: make(chan struct{})}
	c := cache.NewFreshnessCache()
	svc := NewQuoteService(c, up, testPolicy)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.FetchQuote(ctx, "NVDA")
		first <- err
	}()

	second := make(chan error, 1)
	go func() {
		for up.quoteCalls.Load() == 0 {
			time.Sleep(time.Millisecond)
		}
		_, err := svc.FetchQuote(context.Background(), "NVDA")
		second <- err
	}()

	for up.quoteCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-first; err == nil {
		t.Fatal("cancelled caller should return an error")
	}

	close(up.release)
	if err := <-second; err != nil {
		t.Fatalf("other waiter: %v", err)
	}
	if _, ok := c.Get(cache.QuoteKey("NVDA")); !ok {
		t.Fatal("shared fetch result was not cached")
	}
	if up.quoteCalls.Load() != 1 {
		t.Fatalf("upstream called %d times, want 1", up.quoteCalls.Load())
	}
}

func TestFetchQuoteArchivesAndInvalidates(t *testing.T) {
	arch := &fakeArchive{err: errBoom}
	up := &fakeUpstream{price: 10}
	svc := NewQuoteService(cache.NewFreshnessCache(), up, testPolicy, WithArchive(arch))

	if _, err := svc.FetchQuote(context.Background(), "IBM"); err != nil {
		t.Fatalf("archive failure must not fail the fetch: %v", err)
	}
	if len(arch.quotes) != 1 {
		t.Fatalf("archived %d quotes, want 1", len(arch.quotes))
	}

	svc.Invalidate("ibm")
	if _, err := svc.FetchQuote(context.Background(), "IBM"); err != nil {
		t.Fatal(err)
	}
	if up.quoteCalls.Load() != 2 {
		t.Fatalf("upstream called %d times after invalidate, want 2", up.quoteCalls.Load())
	}
}
