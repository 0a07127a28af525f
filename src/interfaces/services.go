package interfaces

import (
	"context"

	"stock-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteService serves live quotes, cache first.
// -----------------------------------------------------------------------------

type IQuoteService interface {
	FetchQuote(ctx context.Context, symbol string) (models.MQuoteRecord, error)
	Invalidate(symbol string)
}

// -----------------------------------------------------------------------------
// IHistoryService serves candle series keyed by (symbol, period).
// -----------------------------------------------------------------------------

type IHistoryService interface {
	FetchHistory(ctx context.Context, symbol, period string) ([]models.MCandleRecord, error)
	Invalidate(symbol string) int
}
