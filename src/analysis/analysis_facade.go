package analysis

import (
	"math"
	"sort"
	"time"

	"stock-dashboard/src/analysis/core"
	"stock-dashboard/src/models"
)

const tradingDaysPerYear = 252

// IndicatorParams selects the look-back of each indicator. Zero fields use the facade defaults.
type IndicatorParams struct {
	SMAShort  int
	SMALong   int
	RSIPeriod int
}

type AnalysisFacade struct {
	Defaults IndicatorParams
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg models.MAnalysisConfig) *AnalysisFacade {
	d := IndicatorParams{SMAShort: cfg.SMAShort, SMALong: cfg.SMALong, RSIPeriod: cfg.RSIPeriod}
	if d.SMAShort <= 0 {
		d.SMAShort = 20
	}
	if d.SMALong <= 0 {
		d.SMALong = 50
	}
	if d.RSIPeriod <= 0 {
		d.RSIPeriod = 14
	}
	return &AnalysisFacade{Defaults: d}
}

func (a *AnalysisFacade) resolve(p IndicatorParams) IndicatorParams {
	if p.SMAShort <= 0 {
		p.SMAShort = a.Defaults.SMAShort
	}
	if p.SMALong <= 0 {
		p.SMALong = a.Defaults.SMALong
	}
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = a.Defaults.RSIPeriod
	}
	return p
}

// -----------------------------------------------------------------------------

// Indicators computes the latest SMA, RSI, trend and return statistics of a series.
// Candles without a close are skipped. Indicators that need more history than
// available stay nil.
func (a *AnalysisFacade) Indicators(symbol, period string, candles []models.MCandleRecord, params IndicatorParams) models.MIndicatorReport {
	p := a.resolve(params)
	closes := closeSeries(candles)

	report := models.MIndicatorReport{Symbol: symbol, Period: period}
	if len(closes) == 0 {
		return report
	}

	last := closes[len(closes)-1]
	report.LastClose = &last

	if v, ok := core.SimpleMovingAverage(closes, p.SMAShort); ok {
		report.SMAShort = &v
	}
	if v, ok := core.SimpleMovingAverage(closes, p.SMALong); ok {
		report.SMALong = &v
	}
	if v, ok := core.RelativeStrengthIndex(closes, p.RSIPeriod); ok {
		report.RSI = &v
	}
	if report.SMAShort != nil {
		if last > *report.SMAShort {
			report.Trend = "bullish"
		} else {
			report.Trend = "bearish"
		}
	}

	report.Stats = ReturnStatistics(closes)
	return report
}

// -----------------------------------------------------------------------------

// ReturnStatistics summarises close-to-close returns. Volatility and Sharpe are annualised.
func ReturnStatistics(closes []float64) models.MReturnStats {
	returns := core.DailyReturns(closes)
	stats := models.MReturnStats{Observations: len(returns)}
	if len(returns) == 0 {
		return stats
	}

	mean, _ := core.CalculateMeanStd(returns)
	std := core.CalculateSampleStd(returns)

	stats.MeanDailyReturn = mean
	stats.StdDevDailyReturn = std
	stats.AnnualizedVolatility = std * math.Sqrt(tradingDaysPerYear)
	if std > 0 {
		stats.SharpeRatio = mean / std * math.Sqrt(tradingDaysPerYear)
	}
	stats.TotalReturnPercent = core.CalculateChangePercent(closes[len(closes)-1], closes[0]) * 100
	return stats
}

// -----------------------------------------------------------------------------

// Correlation computes pairwise correlation of daily returns over the dates
// each pair has in common.
func (a *AnalysisFacade) Correlation(period string, series map[string][]models.MCandleRecord) models.MCorrelationMatrix {
	symbols := make([]string, 0, len(series))
	byDate := make(map[string]map[time.Time]float64, len(series))
	for sym, candles := range series {
		symbols = append(symbols, sym)
		byDate[sym] = closesByDay(candles)
	}
	sort.Strings(symbols)

	matrix := make(map[string]map[string]float64, len(symbols))
	for _, s := range symbols {
		matrix[s] = make(map[string]float64, len(symbols))
	}

	for i, x := range symbols {
		matrix[x][x] = 1
		for _, y := range symbols[i+1:] {
			cx, cy := alignCloses(byDate[x], byDate[y])
			corr := core.CalculateCorrelation(core.DailyReturns(cx), core.DailyReturns(cy))
			matrix[x][y] = corr
			matrix[y][x] = corr
		}
	}

	return models.MCorrelationMatrix{Period: period, Symbols: symbols, Matrix: matrix}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func closeSeries(candles []models.MCandleRecord) []float64 {
	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		if c.Close != nil {
			closes = append(closes, *c.Close)
		}
	}
	return closes
}

func closesByDay(candles []models.MCandleRecord) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(candles))
	for _, c := range candles {
		if c.Close != nil {
			out[c.Date.UTC().Truncate(24*time.Hour)] = *c.Close
		}
	}
	return out
}

func alignCloses(x, y map[time.Time]float64) ([]float64, []float64) {
	dates := make([]time.Time, 0, len(x))
	for d := range x {
		if _, ok := y[d]; ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	cx := make([]float64, len(dates))
	cy := make([]float64, len(dates))
	for i, d := range dates {
		cx[i] = x[d]
		cy[i] = y[d]
	}
	return cx, cy
}
