package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"stock-dashboard/src/cache"
	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"golang.org/x/sync/singleflight"
)

const DefaultPeriod = "1d"

// lookback maps a period token to the start of its window. The token doubles
// as the upstream bar interval.
var lookback = map[string]func(time.Time) time.Time{
	"1d":  func(t time.Time) time.Time { return t.AddDate(0, 0, -1) },
	"1wk": func(t time.Time) time.Time { return t.AddDate(0, 0, -7) },
	"1mo": func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
}

// ValidPeriod reports whether period is one of 1d, 1wk, 1mo.
func ValidPeriod(period string) bool {
	_, ok := lookback[period]
	return ok
}

// -----------------------------------------------------------------------------

// HistoryService serves candle series keyed by (symbol, period).
type HistoryService struct {
	Cache    interfaces.ICache
	Upstream interfaces.IUpstreamClient
	Policy   cache.TTLPolicy
	Logger   *logger.Logger

	// LegacyPeriodFallback treats unknown period tokens as a one-day window
	// instead of rejecting them.
	LegacyPeriodFallback bool

	base
	inflight singleflight.Group
	stats    counters
}

// -----------------------------------------------------------------------------

func NewHistoryService(c interfaces.ICache, upstream interfaces.IUpstreamClient, policy cache.TTLPolicy, legacyFallback bool, opts ...Option) *HistoryService {
	return &HistoryService{
		Cache:                c,
		Upstream:             upstream,
		Policy:               policy,
		Logger:               logger.NewLogger("HistoryService"),
		LegacyPeriodFallback: legacyFallback,
		base:                 newBase(opts),
	}
}

// -----------------------------------------------------------------------------

// FetchHistory returns the candles of symbol over period, oldest first.
func (s *HistoryService) FetchHistory(ctx context.Context, symbol, period string) ([]models.MCandleRecord, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = DefaultPeriod
	}

	window, interval, err := s.resolvePeriod(period)
	if err != nil {
		return nil, err
	}

	key := cache.HistoryKey(symbol, period)
	if candles, ok := s.cached(key); ok {
		s.stats.cacheHits.Add(1)
		return cloneCandles(candles), nil
	}

	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), key, symbol, period, window, interval)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.stats.coalesced.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneCandles(res.Val.([]models.MCandleRecord)), nil
	case <-ctx.Done():
		return nil, helpers.NewUpstreamError(symbol, "request cancelled", ctx.Err())
	}
}

// -----------------------------------------------------------------------------

// Invalidate drops every cached period of symbol.
func (s *HistoryService) Invalidate(symbol string) int {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return 0
	}
	return s.Cache.DeletePrefix(cache.HistorySymbolPrefix(symbol))
}

func (s *HistoryService) Stats() Stats {
	return s.stats.snapshot()
}

// -----------------------------------------------------------------------------

func (s *HistoryService) resolvePeriod(period string) (func(time.Time) time.Time, string, error) {
	if window, ok := lookback[period]; ok {
		return window, period, nil
	}
	if s.LegacyPeriodFallback {
		s.Logger.Debug("Unknown period %q, using %s window", period, DefaultPeriod)
		return lookback[DefaultPeriod], DefaultPeriod, nil
	}
	return nil, "", helpers.NewInvalidPeriodError(period)
}

// cloneCandles gives each caller its own series; the cached one is never handed out.
func cloneCandles(in []models.MCandleRecord) []models.MCandleRecord {
	out := make([]models.MCandleRecord, len(in))
	for i, c := range in {
		out[i] = models.MCandleRecord{
			Date:   c.Date,
			Open:   cloneFloat(c.Open),
			High:   cloneFloat(c.High),
			Low:    cloneFloat(c.Low),
			Close:  cloneFloat(c.Close),
			Volume: c.Volume,
		}
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func (s *HistoryService) cached(key string) ([]models.MCandleRecord, bool) {
	v, ok := s.Cache.Get(key)
	if !ok {
		return nil, false
	}
	candles, ok := v.([]models.MCandleRecord)
	return candles, ok
}

// -----------------------------------------------------------------------------

func (s *HistoryService) load(ctx context.Context, key, symbol, period string, window func(time.Time) time.Time, interval string) (interface{}, error) {
	if candles, ok := s.cached(key); ok {
		return candles, nil
	}

	s.stats.upstreamCalls.Add(1)
	to := s.now()
	bars, err := s.fetchUpstream(ctx, symbol, window(to), to, interval)
	if err != nil {
		s.stats.failures.Add(1)
		s.Logger.With("symbol", symbol).Warning("History fetch failed (%s): %v", period, err)
		return nil, err
	}

	candles := toCandles(bars)
	s.Cache.Set(key, candles, s.Policy.For(key))

	if s.archive != nil {
		if err := s.archive.SaveCandles(symbol, period, candles); err != nil {
			s.Logger.With("symbol", symbol).Warning("Archive candles (%s): %v", period, err)
		}
	}
	return candles, nil
}

func (s *HistoryService) fetchUpstream(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.MUpstreamBar, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		bars []models.MUpstreamBar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := s.Upstream.FetchHistory(ctx, symbol, from, to, interval)
		done <- result{bars, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return nil, helpers.NewUpstreamError(symbol, "timed out", r.err)
			}
			return nil, helpers.NewUpstreamError(symbol, "fetch failed", r.err)
		}
		if len(r.bars) == 0 {
			return nil, helpers.NewUpstreamError(symbol, "no historical data available", nil)
		}
		return r.bars, nil
	case <-ctx.Done():
		return nil, helpers.NewUpstreamError(symbol, "timed out", ctx.Err())
	}
}

// -----------------------------------------------------------------------------

// toCandles keeps absent (or zero) OHLC values as nil and defaults volume to 0.
func toCandles(bars []models.MUpstreamBar) []models.MCandleRecord {
	candles := make([]models.MCandleRecord, 0, len(bars))
	for _, b := range bars {
		c := models.MCandleRecord{
			Date:  b.Date,
			Open:  present(b.Open),
			High:  present(b.High),
			Low:   present(b.Low),
			Close: present(b.Close),
		}
		if b.Volume != nil {
			c.Volume = *b.Volume
		}
		candles = append(candles, c)
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})
	return candles
}

func present(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	x := *v
	return &x
}
