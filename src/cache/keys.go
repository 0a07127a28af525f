package cache

import (
	"strings"
	"time"
)

const (
	QuotePrefix   = "quote:"
	HistoryPrefix = "history:"
)

func QuoteKey(symbol string) string {
	return QuotePrefix + symbol
}

func HistoryKey(symbol, period string) string {
	return HistoryPrefix + symbol + ":" + period
}

// HistorySymbolPrefix matches every cached period of one symbol.
func HistorySymbolPrefix(symbol string) string {
	return HistoryPrefix + symbol + ":"
}

// -----------------------------------------------------------------------------

// TTLPolicy fixes a key's lifetime by its namespace prefix.
type TTLPolicy struct {
	Quote   time.Duration
	History time.Duration
}

func NewTTLPolicy(quoteSeconds, historySeconds int) TTLPolicy {
	return TTLPolicy{
		Quote:   time.Duration(quoteSeconds) * time.Second,
		History: time.Duration(historySeconds) * time.Second,
	}
}

// For returns the TTL of key's namespace, or 0 for keys outside both namespaces.
func (p TTLPolicy) For(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, QuotePrefix):
		return p.Quote
	case strings.HasPrefix(key, HistoryPrefix):
		return p.History
	default:
		return 0
	}
}
