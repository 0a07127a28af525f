package server

import (
	"context"
	"sync"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"golang.org/x/sync/errgroup"
)

// MarketGate reports whether refreshing is worthwhile for the given symbols.
type MarketGate interface {
	AnyMarketOpen(symbols []string) bool
}

// Refresher periodically re-fetches every subscribed symbol and publishes it.
type Refresher struct {
	Hub         *SubscriptionHub
	Quotes      interfaces.IQuoteService
	Gate        MarketGate // nil refreshes around the clock
	Interval    time.Duration
	Concurrency int
	Logger      *logger.Logger

	mu        sync.Mutex
	published map[string]time.Time // symbol -> timestamp of the last record sent
}

func NewRefresher(hub *SubscriptionHub, quotes interfaces.IQuoteService, interval time.Duration, concurrency int, log *logger.Logger) *Refresher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Refresher{
		Hub:         hub,
		Quotes:      quotes,
		Interval:    interval,
		Concurrency: concurrency,
		Logger:      log,
		published:   make(map[string]time.Time),
	}
}

// -----------------------------------------------------------------------------

// Run refreshes every Interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.Logger.Info("Refreshing subscribed symbols every %v", r.Interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RefreshOnce(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// RefreshOnce runs one cycle and returns how many symbols were published.
// A record already published for a symbol is not sent again.
func (r *Refresher) RefreshOnce(ctx context.Context) int {
	symbols := r.Hub.Symbols()
	r.forgetUnsubscribed(symbols)
	if len(symbols) == 0 {
		return 0
	}
	if r.Gate != nil && !r.Gate.AnyMarketOpen(symbols) {
		r.Logger.Debug("Markets closed, skipping refresh of %d symbols", len(symbols))
		return 0
	}

	var mu sync.Mutex
	published := 0

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		group.Go(func() error {
			quote, err := r.Quotes.FetchQuote(gctx, symbol)
			if err != nil {
				// skipped for this cycle only
				r.Logger.Warning("Refresh %s: %v", symbol, err)
				return nil
			}
			if !r.markPublished(symbol, quote.Timestamp) {
				return nil
			}
			outcomes := r.Hub.Publish(symbol, models.NewStockUpdate(quote))
			r.Logger.Debug("Published %s to %d connections", symbol, len(outcomes))

			mu.Lock()
			published++
			mu.Unlock()
			return nil
		})
	}
	group.Wait()
	return published
}

func (r *Refresher) markPublished(symbol string, ts time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.published[symbol]; ok && last.Equal(ts) {
		return false
	}
	r.published[symbol] = ts
	return true
}

func (r *Refresher) forgetUnsubscribed(active []string) {
	keep := make(map[string]struct{}, len(active))
	for _, s := range active {
		keep[s] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.published {
		if _, ok := keep[s]; !ok {
			delete(r.published, s)
		}
	}
}

// Force publishes the current quote of symbol regardless of what was sent before.
func (r *Refresher) Force(ctx context.Context, symbol string) (models.MQuoteRecord, []DeliveryOutcome, error) {
	quote, err := r.Quotes.FetchQuote(ctx, symbol)
	if err != nil {
		return models.MQuoteRecord{}, nil, err
	}
	r.markPublished(quote.Symbol, quote.Timestamp)
	return quote, r.Hub.Publish(quote.Symbol, models.NewStockUpdate(quote)), nil
}
