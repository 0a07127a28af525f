package interfaces

import "stock-dashboard/src/models"

// -----------------------------------------------------------------------------
// IArchive records fetched market data for offline analysis.
// It is never read back into the caches.
// -----------------------------------------------------------------------------

type IArchive interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// SaveQuote appends one quote snapshot.
	SaveQuote(quote models.MQuoteRecord) error

	// SaveCandles upserts a candle series for (symbol, period).
	SaveCandles(symbol, period string, candles []models.MCandleRecord) error

	// LoadCandles returns the archived series for (symbol, period), oldest first.
	LoadCandles(symbol, period string) ([]models.MCandleRecord, error)

	// Close the database connection
	Close() error
}
