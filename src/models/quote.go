package models

import "time"

// MQuoteRecord is one live price snapshot for a symbol.
// Records are values; a newer fetch replaces the cached record instead of mutating it.
type MQuoteRecord struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// MQuotePayload is the "data" object of a STOCK_UPDATE message.
type MQuotePayload struct {
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

func (q MQuoteRecord) Payload() MQuotePayload {
	return MQuotePayload{
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Volume:        q.Volume,
		Timestamp:     q.Timestamp,
	}
}

// -----------------------------------------------------------------------------

// MUpstreamQuote is what an upstream client reports for a live quote.
type MUpstreamQuote struct {
	Symbol        string
	Price         float64
	PreviousClose float64
	Volume        float64
	MarketTime    time.Time
}
