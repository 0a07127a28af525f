package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stock-dashboard/src/models"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) models.MStockUpdate {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg models.MStockUpdate
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// -----------------------------------------------------------------------------

func TestSubscribeThenRefreshAfterTTL(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("AAPL", 150.00)

	srv := httptest.NewServer(fx.gateway.WSHandler())
	defer srv.Close()
	c1 := dial(t, srv, "/")

	if err := c1.WriteJSON(models.MSubscribeCommand{Type: models.MsgSubscribeStocks, Symbols: []string{"AAPL"}}); err != nil {
		t.Fatal(err)
	}

	first := readUpdate(t, c1)
	if first.Type != models.MsgStockUpdate || first.Symbol != "AAPL" || first.Data.Price != 150.00 {
		t.Fatalf("first update = %+v", first)
	}

	// within the quote TTL every read is served from cache
	fx.clock.Set(fx.t0.Add(59 * time.Second))
	if _, err := fx.quotes.FetchQuote(t.Context(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	if n := fx.upstream.quoteCalls.Load(); n != 1 {
		t.Fatalf("upstream called %d times before TTL expiry, want 1", n)
	}

	fx.clock.Set(fx.t0.Add(65 * time.Second))
	fx.upstream.setPrice("AAPL", 151.25)
	if n := fx.refresher.RefreshOnce(t.Context()); n != 1 {
		t.Fatalf("refresh published %d symbols, want 1", n)
	}

	second := readUpdate(t, c1)
	if second.Symbol != "AAPL" || second.Data.Price != 151.25 {
		t.Fatalf("second update = %+v", second)
	}
	if n := fx.upstream.quoteCalls.Load(); n != 2 {
		t.Fatalf("upstream called %d times, want 2", n)
	}
}

func TestMalformedMessagesKeepConnectionOpen(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("MSFT", 410)

	srv := httptest.NewServer(fx.gateway.WSHandler())
	defer srv.Close()
	conn := dial(t, srv, "/ws")

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	conn.WriteJSON(map[string]interface{}{"type": "UNKNOWN", "symbols": []string{"X"}})
	conn.WriteJSON(models.MSubscribeCommand{Type: models.MsgSubscribeStocks, Symbols: []string{"msft", "MSFT", " "}})

	msg := readUpdate(t, conn)
	if msg.Symbol != "MSFT" || msg.Data.Price != 410 {
		t.Fatalf("update = %+v", msg)
	}
	if fx.hub.SubscriberCount("MSFT") != 1 || len(fx.hub.Symbols()) != 1 {
		t.Fatalf("symbols = %v", fx.hub.Symbols())
	}
}

func TestUpstreamFailureSkipsOnlyThatSymbol(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("GOOD", 10)

	srv := httptest.NewServer(fx.gateway.WSHandler())
	defer srv.Close()
	conn := dial(t, srv, "/")

	conn.WriteJSON(models.MSubscribeCommand{Type: models.MsgSubscribeStocks, Symbols: []string{"BAD", "GOOD"}})

	msg := readUpdate(t, conn)
	if msg.Symbol != "GOOD" {
		t.Fatalf("update = %+v", msg)
	}
	// BAD stays subscribed for later refresh cycles
	waitFor(t, func() bool { return fx.hub.SubscriberCount("BAD") == 1 })
}

func TestDisconnectRemovesSubscriptions(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("AAPL", 1)

	srv := httptest.NewServer(fx.gateway.WSHandler())
	defer srv.Close()
	conn := dial(t, srv, "/")

	conn.WriteJSON(models.MSubscribeCommand{Type: models.MsgSubscribeStocks, Symbols: []string{"AAPL"}})
	readUpdate(t, conn)
	conn.Close()

	waitFor(t, func() bool { return fx.hub.ConnectionCount() == 0 && fx.hub.SubscriberCount("AAPL") == 0 })
}
