package models

import "time"

// MCandleRecord is one OHLCV bar as served to clients.
// Missing OHLC values stay nil (JSON null). Volume defaults to 0.
type MCandleRecord struct {
	Date   time.Time `json:"date"`
	Open   *float64  `json:"open"`
	High   *float64  `json:"high"`
	Low    *float64  `json:"low"`
	Close  *float64  `json:"close"`
	Volume float64   `json:"volume"`
}

// MUpstreamBar is a raw bar from an upstream client. Any field may be absent.
type MUpstreamBar struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}
