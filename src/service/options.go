package service

import (
	"strings"
	"sync/atomic"
	"time"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
)

const DefaultUpstreamTimeout = 5 * time.Second

// Option configures QuoteService and HistoryService.
type Option func(*base)

type base struct {
	archive interfaces.IArchive
	timeout time.Duration
	now     func() time.Time
}

func newBase(opts []Option) base {
	b := base{timeout: DefaultUpstreamTimeout, now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithArchive records every fresh result, best-effort.
func WithArchive(a interfaces.IArchive) Option {
	return func(b *base) { b.archive = a }
}

// WithUpstreamTimeout bounds each shared upstream call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// -----------------------------------------------------------------------------

// Stats is a point-in-time copy of a service's counters.
type Stats struct {
	UpstreamCalls int64 `json:"upstreamCalls"`
	CacheHits     int64 `json:"cacheHits"`
	Coalesced     int64 `json:"coalesced"`
	Failures      int64 `json:"failures"`
}

type counters struct {
	upstreamCalls atomic.Int64
	cacheHits     atomic.Int64
	coalesced     atomic.Int64
	failures      atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		UpstreamCalls: c.upstreamCalls.Load(),
		CacheHits:     c.cacheHits.Load(),
		Coalesced:     c.coalesced.Load(),
		Failures:      c.failures.Load(),
	}
}

// -----------------------------------------------------------------------------

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", helpers.NewValidationError("symbol is required")
	}
	return s, nil
}
