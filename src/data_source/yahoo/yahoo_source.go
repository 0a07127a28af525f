package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

type YahooFinanceSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	baseURL      string
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *YahooFinanceSource {
	base := strings.TrimRight(sourceCfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &YahooFinanceSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger("YahooFinanceSource-" + sourceCfg.Name),
		baseURL:      base,
	}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// FetchQuote reads the live quote from the chart metadata of a one-day range.
func (s *YahooFinanceSource) FetchQuote(ctx context.Context, symbol string) (models.MUpstreamQuote, error) {
	resp, err := s.fetchChart(ctx, symbol, map[string]string{
		"range":    "1d",
		"interval": "1d",
	})
	if err != nil {
		return models.MUpstreamQuote{}, err
	}

	meta := resp.Meta
	if meta.RegularMarketPrice == nil || *meta.RegularMarketPrice <= 0 {
		return models.MUpstreamQuote{}, fmt.Errorf("no usable price for %s", symbol)
	}

	prevClose := 0.0
	if meta.PreviousClose != nil && *meta.PreviousClose > 0 {
		prevClose = *meta.PreviousClose
	} else if meta.ChartPreviousClose != nil {
		prevClose = *meta.ChartPreviousClose
	}

	volume := 0.0
	if meta.RegularMarketVolume != nil {
		volume = *meta.RegularMarketVolume
	}

	quote := models.MUpstreamQuote{
		Symbol:        symbol,
		Price:         *meta.RegularMarketPrice,
		PreviousClose: prevClose,
		Volume:        volume,
	}
	if meta.RegularMarketTime > 0 {
		quote.MarketTime = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

// FetchHistory returns the bars between from and to. Null OHLCV values are kept as nil.
func (s *YahooFinanceSource) FetchHistory(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.MUpstreamBar, error) {
	resp, err := s.fetchChart(ctx, symbol, map[string]string{
		"period1":        strconv.FormatInt(from.Unix(), 10),
		"period2":        strconv.FormatInt(to.Unix(), 10),
		"interval":       interval,
		"includePrePost": "false",
	})
	if err != nil {
		return nil, err
	}
	return s.parseBars(symbol, resp)
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) fetchChart(ctx context.Context, symbol string, params map[string]string) (*chartResult, error) {
	if s.SourceConfig.APIKey != "" {
		params["apikey"] = s.SourceConfig.APIKey
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", s.baseURL, url.PathEscape(symbol))
	respBytes, err := s.Network.Get(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", symbol, err)
	}
	return parseChartResponse(symbol, respBytes)
}

// -----------------------------------------------------------------------------

type chartMeta struct {
	Currency            string   `json:"currency"`
	Symbol              string   `json:"symbol"`
	ExchangeName        string   `json:"exchangeName"`
	Timezone            string   `json:"timezone"`
	RegularMarketTime   int64    `json:"regularMarketTime"`
	RegularMarketPrice  *float64 `json:"regularMarketPrice"`
	RegularMarketVolume *float64 `json:"regularMarketVolume"`
	ChartPreviousClose  *float64 `json:"chartPreviousClose"`
	PreviousClose       *float64 `json:"previousClose"`
	DataGranularity     string   `json:"dataGranularity"`
	Range               string   `json:"range"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			High   []*float64 `json:"high"` // Use pointers to handle null
			Low    []*float64 `json:"low"`
			Open   []*float64 `json:"open"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type YahooChartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func parseChartResponse(symbol string, data []byte) (*chartResult, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result in response for %s", symbol)
	}

	return &resp.Chart.Result[0], nil
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) parseBars(symbol string, result *chartResult) ([]models.MUpstreamBar, error) {
	if len(result.Timestamp) == 0 {
		// A valid range with no trading sessions
		return nil, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)

	// Alignment check
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n ||
		len(quote.Low) != n || len(quote.Volume) != n {
		s.Logger.Warning("Data alignment error for %s: mismatched array lengths", symbol)
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	bars := make([]models.MUpstreamBar, 0, n)
	for i, ts := range result.Timestamp {
		bars = append(bars, models.MUpstreamBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: quote.Volume[i],
		})
	}

	s.Logger.Debug("Fetched %s: %d bars [%d -> %d]", symbol, n, result.Timestamp[0], result.Timestamp[n-1])
	return bars, nil
}
