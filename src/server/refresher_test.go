package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-dashboard/src/models"
)

type closedMarkets struct{ calls int }

func (c *closedMarkets) AnyMarketOpen(symbols []string) bool {
	c.calls++
	return false
}

func TestRefreshOnceSkipsUnchangedRecords(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("AAPL", 150)
	sink := newSink("a")
	fx.hub.Register(sink)
	fx.hub.Subscribe("a", []string{"AAPL"})

	ctx := context.Background()
	if n := fx.refresher.RefreshOnce(ctx); n != 1 {
		t.Fatalf("first cycle published %d, want 1", n)
	}
	// same cached record
	fx.clock.Set(fx.t0.Add(30 * time.Second))
	if n := fx.refresher.RefreshOnce(ctx); n != 0 {
		t.Fatalf("second cycle published %d, want 0", n)
	}
	fx.clock.Set(fx.t0.Add(61 * time.Second))
	if n := fx.refresher.RefreshOnce(ctx); n != 1 {
		t.Fatalf("third cycle published %d, want 1", n)
	}

	got := sink.received()
	if len(got) != 2 {
		t.Fatalf("sink received %d updates, want 2", len(got))
	}
	if u := got[0].(models.MStockUpdate); u.Type != models.MsgStockUpdate || u.Data.Price != 150 {
		t.Fatalf("update = %+v", u)
	}
}

func TestRefreshOnceFailureDoesNotAffectOthers(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("OK", 5)
	sink := newSink("a")
	fx.hub.Register(sink)
	fx.hub.Subscribe("a", []string{"OK", "MISSING"})

	if n := fx.refresher.RefreshOnce(context.Background()); n != 1 {
		t.Fatalf("published %d, want 1", n)
	}
	if len(sink.received()) != 1 {
		t.Fatal("healthy symbol not delivered")
	}
}

func TestRefreshOnceHonoursMarketGate(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("AAPL", 1)
	fx.hub.Register(newSink("a"))
	fx.hub.Subscribe("a", []string{"AAPL"})

	gate := &closedMarkets{}
	fx.refresher.Gate = gate
	if n := fx.refresher.RefreshOnce(context.Background()); n != 0 || gate.calls != 1 {
		t.Fatalf("published %d with closed markets", n)
	}
	if fx.upstream.quoteCalls.Load() != 0 {
		t.Fatal("upstream called while markets closed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fx := newFixture()
	fx.refresher.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fx.refresher.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestForcePublishes(t *testing.T) {
	fx := newFixture()
	fx.upstream.setPrice("AAPL", 2)
	sink := newSink("a")
	fx.hub.Register(sink)
	fx.hub.Subscribe("a", []string{"AAPL"})

	q, outcomes, err := fx.refresher.Force(context.Background(), "aapl")
	if err != nil || q.Price != 2 || len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("force: %+v %+v %v", q, outcomes, err)
	}

	fx.upstream.err = errors.New("down")
	fx.quotes.Invalidate("AAPL")
	if _, _, err := fx.refresher.Force(context.Background(), "AAPL"); err == nil {
		t.Fatal("force should report upstream failure")
	}
}
