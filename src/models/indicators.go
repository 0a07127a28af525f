package models

// MIndicatorReport is the server-side rendition of the dashboard's metrics widget.
type MIndicatorReport struct {
	Symbol    string       `json:"symbol"`
	Period    string       `json:"period"`
	LastClose *float64     `json:"lastClose"`
	SMAShort  *float64     `json:"smaShort"`
	SMALong   *float64     `json:"smaLong"`
	RSI       *float64     `json:"rsi"`
	Trend     string       `json:"trend"` // "bullish", "bearish" or "" when undetermined
	Stats     MReturnStats `json:"stats"`
}

// MReturnStats summarises close-to-close returns of a series.
type MReturnStats struct {
	MeanDailyReturn      float64 `json:"meanDailyReturn"`
	StdDevDailyReturn    float64 `json:"stdDevDailyReturn"`
	AnnualizedVolatility float64 `json:"annualizedVolatility"`
	SharpeRatio          float64 `json:"sharpeRatio"`
	TotalReturnPercent   float64 `json:"totalReturnPercent"`
	Observations         int     `json:"observations"`
}

// MCorrelationMatrix holds pairwise correlation of daily returns.
type MCorrelationMatrix struct {
	Period  string                        `json:"period"`
	Symbols []string                      `json:"symbols"`
	Matrix  map[string]map[string]float64 `json:"matrix"`
}
