package utils

import (
	"time"

	"stock-dashboard/src/logger"
)

// MarketScheduler tells the refresh loop whether any subscribed market is trading.
type MarketScheduler struct {
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(l *logger.Logger) *MarketScheduler {
	return &MarketScheduler{Logger: l, now: time.Now}
}

// -----------------------------------------------------------------------------

// AnyMarketOpen reports whether at least one exchange trading the given
// symbols is open now. No symbols means nothing to refresh.
func (ms *MarketScheduler) AnyMarketOpen(symbols []string) bool {
	return ms.AnyMarketOpenAt(symbols, ms.now().UTC())
}

func (ms *MarketScheduler) AnyMarketOpenAt(symbols []string, t time.Time) bool {
	seen := make(map[*TradingCalendar]struct{})
	for _, symbol := range symbols {
		cal := GetCalendar(symbol)
		if _, ok := seen[cal]; ok {
			continue
		}
		seen[cal] = struct{}{}
		if cal.IsOpenOnMinute(t) {
			return true
		}
	}
	if len(symbols) > 0 {
		ms.Logger.Debug("All %d markets closed for %d symbols", len(seen), len(symbols))
	}
	return false
}
