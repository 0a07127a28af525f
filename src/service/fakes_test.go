package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"stock-dashboard/src/models"
)

type fakeUpstream struct {
	mu      sync.Mutex
	price   float64
	prev    float64
	bars    []models.MUpstreamBar
	err     error
	release chan struct{} // when set, calls block until it is closed
	ignore  bool          // ignore ctx while blocked

	quoteCalls   atomic.Int32
	historyCalls atomic.Int32
	lastInterval string
	lastFrom     time.Time
	lastTo       time.Time
}

func (f *fakeUpstream) Name() string { return "fake" }

func (f *fakeUpstream) wait(ctx context.Context) error {
	if f.release == nil {
		return nil
	}
	if f.ignore {
		<-f.release
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeUpstream) FetchQuote(ctx context.Context, symbol string) (models.MUpstreamQuote, error) {
	f.quoteCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return models.MUpstreamQuote{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.MUpstreamQuote{}, f.err
	}
	return models.MUpstreamQuote{Symbol: symbol, Price: f.price, PreviousClose: f.prev, Volume: 1000}, nil
}

func (f *fakeUpstream) FetchHistory(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.MUpstreamBar, error) {
	f.historyCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInterval, f.lastFrom, f.lastTo = interval, from, to
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeUpstream) set(price float64, err error) {
	f.mu.Lock()
	f.price, f.err = price, err
	f.mu.Unlock()
}

var errBoom = errors.New("boom")

// -----------------------------------------------------------------------------

type fakeArchive struct {
	mu      sync.Mutex
	quotes  []models.MQuoteRecord
	candles map[string][]models.MCandleRecord
	err     error
}

func (a *fakeArchive) Initialize() error { return nil }
func (a *fakeArchive) Close() error      { return nil }

func (a *fakeArchive) SaveQuote(q models.MQuoteRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotes = append(a.quotes, q)
	return a.err
}

func (a *fakeArchive) SaveCandles(symbol, period string, c []models.MCandleRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.candles == nil {
		a.candles = map[string][]models.MCandleRecord{}
	}
	a.candles[symbol+":"+period] = c
	return a.err
}

func (a *fakeArchive) LoadCandles(symbol, period string) ([]models.MCandleRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.candles[symbol+":"+period], nil
}

func f64(v float64) *float64 { return &v }
