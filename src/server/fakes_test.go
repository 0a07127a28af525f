package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"stock-dashboard/src/analysis"
	"stock-dashboard/src/cache"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/service"
)

// fakeSink records deliveries and fails once closed.
type fakeSink struct {
	id string

	mu        sync.Mutex
	got       []interface{}
	closed    bool
	closeHits int
}

func newSink(id string) *fakeSink { return &fakeSink{id: id} }

func (s *fakeSink) ID() string { return s.id }

func (s *fakeSink) Deliver(payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	s.got = append(s.got, payload)
	return nil
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closeHits++
}

func (s *fakeSink) received() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interface{}(nil), s.got...)
}

// -----------------------------------------------------------------------------

type fakeUpstream struct {
	mu     sync.Mutex
	prices map[string]float64
	bars   []models.MUpstreamBar
	err    error

	quoteCalls atomic.Int32
}

func (f *fakeUpstream) Name() string { return "fake" }

func (f *fakeUpstream) FetchQuote(ctx context.Context, symbol string) (models.MUpstreamQuote, error) {
	f.quoteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.MUpstreamQuote{}, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return models.MUpstreamQuote{}, errors.New("unknown symbol")
	}
	return models.MUpstreamQuote{Symbol: symbol, Price: p, PreviousClose: p, Volume: 100}, nil
}

func (f *fakeUpstream) FetchHistory(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.MUpstreamBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeUpstream) setPrice(symbol string, p float64) {
	f.mu.Lock()
	f.prices[symbol] = p
	f.mu.Unlock()
}

// -----------------------------------------------------------------------------

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

type fixture struct {
	clock     *testClock
	t0        time.Time
	upstream  *fakeUpstream
	cache     *cache.FreshnessCache
	quotes    *service.QuoteService
	history   *service.HistoryService
	hub       *SubscriptionHub
	gateway   *DeliveryGateway
	refresher *Refresher
}

func newFixture() *fixture {
	t0 := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	clock := &testClock{now: t0}
	up := &fakeUpstream{prices: map[string]float64{}}
	c := cache.NewFreshnessCache(cache.WithClock(clock.Now))
	policy := cache.NewTTLPolicy(60, 300)

	quotes := service.NewQuoteService(c, up, policy, service.WithClock(clock.Now))
	history := service.NewHistoryService(c, up, policy, false, service.WithClock(clock.Now))
	log := logger.NewLogger("test")
	hub := NewSubscriptionHub(log)
	gw := NewDeliveryGateway(&models.MConfig{LogLevel: "INFO"}, log, hub, quotes, history,
		analysis.NewAnalysisFacade(models.MAnalysisConfig{}))

	return &fixture{
		clock:     clock,
		t0:        t0,
		upstream:  up,
		cache:     c,
		quotes:    quotes,
		history:   history,
		hub:       hub,
		gateway:   gw,
		refresher: NewRefresher(hub, quotes, time.Minute, 4, log),
	}
}

func f64(v float64) *float64 { return &v }
