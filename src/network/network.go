package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"golang.org/x/time/rate"
)

// StatusError is returned for non-200 responses that are not worth retrying.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d", e.StatusCode)
}

// -----------------------------------------------------------------------------

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Limiter      *rate.Limiter
	Logger       *logger.Logger

	clientMu    sync.RWMutex
	client      *http.Client
	backoffUnit time.Duration
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	limit := rate.Inf
	if cfg.Network.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Network.RequestsPerSecond)
	}
	burst := cfg.Network.Burst
	if burst <= 0 {
		burst = 1
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent),
		Limiter:      rate.NewLimiter(limit, burst),
		Logger:       log,
		backoffUnit:  time.Second,
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	client := nm.createClient()

	nm.clientMu.Lock()
	nm.client = client
	nm.clientMu.Unlock()
}

func (nm *AsyncNetworkManager) httpClient() *http.Client {
	nm.clientMu.RLock()
	defer nm.clientMu.RUnlock()
	return nm.client
}

// -----------------------------------------------------------------------------

// Get performs a GET request with rate limiting, retries and proxy rotation.
// 4xx responses other than 403/429 fail immediately.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	maxRetries := nm.Config.Network.MaxRetries
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i*i) * nm.backoffUnit):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			nm.rotateProxy()
		}

		if err := nm.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, retry, err := nm.do(ctx, finalURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		nm.Logger.Info("Request failed (attempt %d/%d): %v", i+1, maxRetries+1, err)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do runs a single attempt and reports whether a failure is worth retrying.
func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := nm.httpClient().Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, true, fmt.Errorf("blocked (status %d)", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, &StatusError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, true, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
