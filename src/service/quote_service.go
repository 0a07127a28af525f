package service

import (
	"context"
	"errors"

	"stock-dashboard/src/cache"
	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"golang.org/x/sync/singleflight"
)

// QuoteService serves live quotes from the cache, falling back to one
// coalesced upstream call per symbol on a miss.
type QuoteService struct {
	Cache    interfaces.ICache
	Upstream interfaces.IUpstreamClient
	Policy   cache.TTLPolicy
	Logger   *logger.Logger

	base
	inflight singleflight.Group
	stats    counters
}

// -----------------------------------------------------------------------------

func NewQuoteService(c interfaces.ICache, upstream interfaces.IUpstreamClient, policy cache.TTLPolicy, opts ...Option) *QuoteService {
	return &QuoteService{
		Cache:    c,
		Upstream: upstream,
		Policy:   policy,
		Logger:   logger.NewLogger("QuoteService"),
		base:     newBase(opts),
	}
}

// -----------------------------------------------------------------------------

// FetchQuote returns the cached quote for symbol or fetches it.
// Concurrent misses for one symbol share a single upstream call. Cancelling ctx
// stops this caller from waiting but leaves the shared call running for the others.
func (s *QuoteService) FetchQuote(ctx context.Context, symbol string) (models.MQuoteRecord, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return models.MQuoteRecord{}, err
	}

	if q, ok := s.cached(symbol); ok {
		s.stats.cacheHits.Add(1)
		return q, nil
	}

	ch := s.inflight.DoChan(symbol, func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), symbol)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.stats.coalesced.Add(1)
		}
		if res.Err != nil {
			return models.MQuoteRecord{}, res.Err
		}
		return res.Val.(models.MQuoteRecord), nil
	case <-ctx.Done():
		return models.MQuoteRecord{}, helpers.NewUpstreamError(symbol, "request cancelled", ctx.Err())
	}
}

// -----------------------------------------------------------------------------

// Invalidate drops the cached quote so the next fetch goes upstream.
func (s *QuoteService) Invalidate(symbol string) {
	if symbol, err := NormalizeSymbol(symbol); err == nil {
		s.Cache.Delete(cache.QuoteKey(symbol))
	}
}

func (s *QuoteService) Stats() Stats {
	return s.stats.snapshot()
}

// -----------------------------------------------------------------------------

func (s *QuoteService) cached(symbol string) (models.MQuoteRecord, bool) {
	v, ok := s.Cache.Get(cache.QuoteKey(symbol))
	if !ok {
		return models.MQuoteRecord{}, false
	}
	q, ok := v.(models.MQuoteRecord)
	return q, ok
}

// load runs once per flight. The cache is checked again because a flight that
// just settled may have filled it between our miss and this call.
func (s *QuoteService) load(ctx context.Context, symbol string) (interface{}, error) {
	if q, ok := s.cached(symbol); ok {
		return q, nil
	}

	s.stats.upstreamCalls.Add(1)
	upstream, err := s.fetchUpstream(ctx, symbol)
	if err != nil {
		s.stats.failures.Add(1)
		s.Logger.With("symbol", symbol).Warning("Quote fetch failed: %v", err)
		return nil, err
	}

	q := s.buildRecord(symbol, upstream)
	key := cache.QuoteKey(symbol)
	s.Cache.Set(key, q, s.Policy.For(key))

	if s.archive != nil {
		if err := s.archive.SaveQuote(q); err != nil {
			s.Logger.With("symbol", symbol).Warning("Archive quote: %v", err)
		}
	}
	return q, nil
}

// fetchUpstream enforces the timeout even when the client ignores ctx.
func (s *QuoteService) fetchUpstream(ctx context.Context, symbol string) (models.MUpstreamQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		quote models.MUpstreamQuote
		err   error
	}
	done := make(chan result, 1)
	go func() {
		q, err := s.Upstream.FetchQuote(ctx, symbol)
		done <- result{q, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return models.MUpstreamQuote{}, helpers.NewUpstreamError(symbol, "timed out", r.err)
			}
			return models.MUpstreamQuote{}, helpers.NewUpstreamError(symbol, "fetch failed", r.err)
		}
		if r.quote.Price <= 0 {
			return models.MUpstreamQuote{}, helpers.NewUpstreamError(symbol, "no usable quote", nil)
		}
		return r.quote, nil
	case <-ctx.Done():
		return models.MUpstreamQuote{}, helpers.NewUpstreamError(symbol, "timed out", ctx.Err())
	}
}

func (s *QuoteService) buildRecord(symbol string, u models.MUpstreamQuote) models.MQuoteRecord {
	q := models.MQuoteRecord{
		Symbol:    symbol,
		Price:     u.Price,
		Volume:    u.Volume,
		Timestamp: s.now().UTC(),
	}
	if u.PreviousClose > 0 {
		q.Change = u.Price - u.PreviousClose
		q.ChangePercent = q.Change / u.PreviousClose * 100
	}
	return q
}
