package helpers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("timeout")
	up := fmt.Errorf("wrapped: %w", NewUpstreamError("AAPL", "fetch failed", cause))

	if !IsUpstream(up) || IsValidation(up) || IsInvalidPeriod(up) {
		t.Fatal("upstream classification wrong")
	}
	if !errors.Is(up, cause) {
		t.Fatal("cause not unwrapped")
	}

	var ue *UpstreamError
	if !errors.As(up, &ue) || ue.Symbol != "AAPL" {
		t.Fatalf("symbol = %v", ue)
	}

	ip := NewInvalidPeriodError("2y")
	if !IsInvalidPeriod(ip) || ip.Period != "2y" {
		t.Fatal("invalid period classification wrong")
	}
	if !IsValidation(NewValidationError("empty symbol")) {
		t.Fatal("validation classification wrong")
	}

	ce := NewConnectionError("c1", cause)
	if ce.ConnectionID != "c1" || ce.Error() != "delivery to connection c1 failed: timeout" {
		t.Fatalf("connection error = %q", ce.Error())
	}
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), nil, "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}

	calls = 0
	sentinel := errors.New("always")
	err = RetryWithBackoff(context.Background(), nil, "op", 2, time.Millisecond, func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 2 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithBackoff(ctx, nil, "op", 5, time.Hour, func() error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestProxyManager(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "", "socks5://10.0.0.2:1080", "ftp://bad"}, "")
	if !pm.HasProxies() {
		t.Fatal("expected proxies")
	}
	first, _ := pm.GetCurrentProxy()
	if first != "http://10.0.0.1:8080" {
		t.Fatalf("first = %q", first)
	}
	pm.RotateProxy()
	second, _ := pm.GetCurrentProxy()
	if second != "socks5://10.0.0.2:1080" {
		t.Fatalf("second = %q", second)
	}
	pm.RotateProxy()
	if again, _ := pm.GetCurrentProxy(); again != first {
		t.Fatalf("rotation did not wrap: %q", again)
	}

	if ua := NewProxyManager(nil, "pinned").GetUserAgent(); ua != "pinned" {
		t.Fatalf("user agent = %q", ua)
	}
}
