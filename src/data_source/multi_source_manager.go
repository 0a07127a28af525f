package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
)

var errNoBars = errors.New("no bars")

// MultiSourceManager tries its sources in order and returns the first usable answer.
type MultiSourceManager struct {
	Logger *logger.Logger

	mu      sync.RWMutex
	sources []interfaces.IUpstreamClient
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IUpstreamClient, log *logger.Logger) *MultiSourceManager {
	return &MultiSourceManager{
		Logger:  log,
		sources: append([]interfaces.IUpstreamClient(nil), sources...),
	}
}

// -----------------------------------------------------------------------------

// AddSource appends a source to the end of the fallback chain
func (m *MultiSourceManager) AddSource(source interfaces.IUpstreamClient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sources {
		if s.Name() == source.Name() {
			return fmt.Errorf("source %s already exists", source.Name())
		}
	}
	m.sources = append(m.sources, source)
	m.Logger.Info("Added source: %s", source.Name())
	return nil
}

// -----------------------------------------------------------------------------

// GetAllSources returns a snapshot of the chain
func (m *MultiSourceManager) GetAllSources() []interfaces.IUpstreamClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]interfaces.IUpstreamClient(nil), m.sources...)
}

// -----------------------------------------------------------------------------

// Name returns "MultiSourceManager"
func (m *MultiSourceManager) Name() string {
	return "MultiSourceManager"
}

// -----------------------------------------------------------------------------

func (m *MultiSourceManager) FetchQuote(ctx context.Context, symbol string) (models.MUpstreamQuote, error) {
	var errs []error
	for _, src := range m.GetAllSources() {
		q, err := src.FetchQuote(ctx, symbol)
		if err == nil {
			return q, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if ctx.Err() != nil {
			break
		}
		m.Logger.Warning("Source %s failed quote for %s: %v", src.Name(), symbol, err)
	}
	return models.MUpstreamQuote{}, chainError(errs)
}

// -----------------------------------------------------------------------------

// FetchHistory falls through sources that fail or return no bars.
func (m *MultiSourceManager) FetchHistory(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.MUpstreamBar, error) {
	var errs []error
	for _, src := range m.GetAllSources() {
		bars, err := src.FetchHistory(ctx, symbol, from, to, interval)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil {
			err = errNoBars
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if ctx.Err() != nil {
			break
		}
		m.Logger.Warning("Source %s failed history for %s: %v", src.Name(), symbol, err)
	}
	if len(errs) > 0 && allEmpty(errs) {
		// every source answered, none had bars
		return nil, nil
	}
	return nil, chainError(errs)
}

// -----------------------------------------------------------------------------

func chainError(errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("no market data sources configured")
	}
	return errors.Join(errs...)
}

func allEmpty(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, errNoBars) {
			return false
		}
	}
	return true
}
