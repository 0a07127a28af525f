package interfaces

import (
	"context"
	"time"

	"stock-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IUpstreamClient is the opaque quote/history capability of a market-data provider.
// Implementations may be slow or fail; callers bound them with ctx.
// -----------------------------------------------------------------------------

type IUpstreamClient interface {

	// Name returns the unique identifier of the source
	Name() string

	// FetchQuote returns the latest quote for symbol.
	FetchQuote(ctx context.Context, symbol string) (models.MUpstreamQuote, error)

	// FetchHistory returns bars for symbol between from and to at the given interval token.
	FetchHistory(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.MUpstreamBar, error)
}
