package server

import (
	"net/http"
	"sync"

	"stock-dashboard/src/analysis"
	"stock-dashboard/src/helpers"
	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	defaultIndicatorPeriod = "1mo"
	maxCorrelationSymbols  = 10
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (g *DeliveryGateway) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": g.Hub.ConnectionCount(),
		"symbols":     len(g.Hub.Symbols()),
	})
}

// -----------------------------------------------------------------------------

func (g *DeliveryGateway) getHistory(c *gin.Context) {
	candles, err := g.History.FetchHistory(c.Request.Context(), c.Param("symbol"), c.Query("period"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, candles)
}

// -----------------------------------------------------------------------------

func (g *DeliveryGateway) getQuote(c *gin.Context) {
	quote, err := g.Quotes.FetchQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// -----------------------------------------------------------------------------

func (g *DeliveryGateway) getIndicators(c *gin.Context) {
	var params analysis.IndicatorParams
	var err error
	if params.SMAShort, err = queryInt(c, "sma_short"); err != nil {
		g.writeError(c, err)
		return
	}
	if params.SMALong, err = queryInt(c, "sma_long"); err != nil {
		g.writeError(c, err)
		return
	}
	if params.RSIPeriod, err = queryInt(c, "rsi"); err != nil {
		g.writeError(c, err)
		return
	}

	period := c.DefaultQuery("period", defaultIndicatorPeriod)
	candles, err := g.History.FetchHistory(c.Request.Context(), c.Param("symbol"), period)
	if err != nil {
		g.writeError(c, err)
		return
	}

	symbol := normalizeSymbols([]string{c.Param("symbol")})[0]
	c.JSON(http.StatusOK, g.Analysis.Indicators(symbol, period, candles, params))
}

// -----------------------------------------------------------------------------

func (g *DeliveryGateway) getCorrelation(c *gin.Context) {
	symbols := splitSymbols(c.Query("symbols"))
	if len(symbols) < 2 || len(symbols) > maxCorrelationSymbols {
		g.writeError(c, helpers.NewValidationError("symbols must list between 2 and 10 tickers"))
		return
	}
	period := c.DefaultQuery("period", defaultIndicatorPeriod)

	var mu sync.Mutex
	series := make(map[string][]models.MCandleRecord, len(symbols))

	group, ctx := errgroup.WithContext(c.Request.Context())
	for _, symbol := range symbols {
		symbol := symbol
		group.Go(func() error {
			candles, err := g.History.FetchHistory(ctx, symbol, period)
			if err != nil {
				return err
			}
			mu.Lock()
			series[symbol] = candles
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Analysis.Correlation(period, series))
}
