package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As at component boundaries
type ConfigurationError struct{ DashboardError }
type ValidationError struct{ DashboardError }
type DatabaseError struct{ DashboardError }

// UpstreamError: provider unreachable, timed out, malformed or empty.
type UpstreamError struct {
	DashboardError
	Symbol string
}

// InvalidPeriodError: unrecognised history period token.
type InvalidPeriodError struct {
	DashboardError
	Period string
}

// ConnectionError: push delivery to one subscriber failed.
type ConnectionError struct {
	DashboardError
	ConnectionID string
}

// -----------------------------------------------------------------------------

func NewUpstreamError(symbol, message string, cause error) *UpstreamError {
	return &UpstreamError{
		DashboardError: DashboardError{Message: fmt.Sprintf("upstream %s: %s", symbol, message), Cause: cause},
		Symbol:         symbol,
	}
}

func NewInvalidPeriodError(period string) *InvalidPeriodError {
	return &InvalidPeriodError{
		DashboardError: DashboardError{Message: fmt.Sprintf("invalid period %q (expected 1d, 1wk or 1mo)", period)},
		Period:         period,
	}
}

func NewConnectionError(connID string, cause error) *ConnectionError {
	return &ConnectionError{
		DashboardError: DashboardError{Message: fmt.Sprintf("delivery to connection %s failed", connID), Cause: cause},
		ConnectionID:   connID,
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{DashboardError{Message: message}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{DashboardError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{DashboardError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsInvalidPeriod(err error) bool {
	var target *InvalidPeriodError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxRetries times, doubling baseDelay between attempts.
// It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}
