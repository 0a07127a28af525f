package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/network"
)

const chartQuoteJSON = `{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":150.5,
"previousClose":148,"regularMarketVolume":1200,"regularMarketTime":1710345600},
"timestamp":[1710345600],"indicators":{"quote":[{"open":[149],"high":[151],"low":[148.5],"close":[150.5],"volume":[1200]}]}}],"error":null}}`

const chartHistoryJSON = `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
"timestamp":[1710163800,1710250200],
"indicators":{"quote":[{"open":[170.1,null],"high":[172,173],"low":[169,null],"close":[171.5,172.2],"volume":[1000,null]}]}}],"error":null}}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *YahooFinanceSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 2}}
	nm := network.NewAsyncNetworkManager(cfg, logger.NewLogger("test"))
	return NewYahooFinanceSource(models.MSourceConfig{Name: "yahoo", BaseURL: srv.URL + "/"}, nm)
}

func TestFetchQuote(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(chartQuoteJSON))
	})

	q, err := src.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if q.Price != 150.5 || q.PreviousClose != 148 || q.Volume != 1200 {
		t.Fatalf("quote = %+v", q)
	}
	if !q.MarketTime.Equal(time.Unix(1710345600, 0)) {
		t.Fatalf("market time = %v", q.MarketTime)
	}
}

func TestFetchQuoteWithoutPrice(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"ZZZZ"}}],"error":null}}`))
	})
	if _, err := src.FetchQuote(context.Background(), "ZZZZ"); err == nil {
		t.Fatal("expected error for missing price")
	}
}

func TestFetchHistoryKeepsNulls(t *testing.T) {
	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("interval") != "1h" || q.Get("period1") != "1710115200" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(chartHistoryJSON))
	})

	bars, err := src.FetchHistory(context.Background(), "AAPL", from, to, "1h")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d", len(bars))
	}
	if bars[1].Open != nil || bars[1].Low != nil || bars[1].Volume != nil {
		t.Fatalf("nulls not preserved: %+v", bars[1])
	}
	if bars[0].Close == nil || *bars[0].Close != 171.5 {
		t.Fatalf("close = %v", bars[0].Close)
	}
}

func TestFetchHistoryErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"api error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, "yahoo api error"},
		{"no result", `{"chart":{"result":[],"error":null}}`, "no result"},
		{"misaligned", `{"chart":{"result":[{"meta":{},"timestamp":[1,2],"indicators":{"quote":[{"open":[1],"high":[1],"low":[1],"close":[1],"volume":[1]}]}}]}}`, "alignment"},
		{"bad json", `{`, "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := src.FetchHistory(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now(), "1d")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestFetchHistoryNoSessions(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{},"indicators":{"quote":[{}]}}],"error":null}}`))
	})
	bars, err := src.FetchHistory(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now(), "1d")
	if err != nil || len(bars) != 0 {
		t.Fatalf("bars=%v err=%v", bars, err)
	}
}
