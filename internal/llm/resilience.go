package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// retrySleepFunc is the sleep function used between retries (injectable for tests)
var retrySleepFunc = time.Sleep

// BreakerSettings tunes the circuit breaker guarding a provider
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
}

// DefaultBreakerSettings trips after half of at least five calls fail
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  5,
		FailureRatio: 0.5,
		OpenTimeout:  30 * time.Second,
		HalfOpenMax:  1,
	}
}

// ResilientProvider wraps a Provider with retries and a circuit breaker
type ResilientProvider struct {
	inner       Provider
	maxAttempts int
	backoff     time.Duration
	breaker     *gobreaker.CircuitBreaker[*ExtractResponse]
}

// NewResilientProvider wraps p. maxRetries counts retries after the first attempt.
func NewResilientProvider(p Provider, maxRetries int, settings BreakerSettings) *ResilientProvider {
	if maxRetries < 0 {
		maxRetries = 0
	}

	rp := &ResilientProvider{
		inner:       p,
		maxAttempts: maxRetries + 1,
		backoff:     time.Second,
	}

	rp.breaker = gobreaker.NewCircuitBreaker[*ExtractResponse](gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: settings.HalfOpenMax,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Malformed model output says nothing about provider health
			return err == nil || errors.Is(err, ErrInvalidExtraction) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "provider", name, "from", from.String(), "to", to.String())
		},
	})

	return rp
}

// Name returns the wrapped provider name
func (p *ResilientProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *ResilientProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// State exposes the breaker state for status output
func (p *ResilientProvider) State() gobreaker.State {
	return p.breaker.State()
}

// Extract runs the wrapped Extract through the breaker and the retry loop
func (p *ResilientProvider) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	return p.breaker.Execute(func() (*ExtractResponse, error) {
		return p.extractWithRetry(ctx, req)
	})
}

func (p *ResilientProvider) extractWithRetry(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * p.backoff
			slog.Warn("retry_attempt",
				"provider", p.inner.Name(),
				"attempt", attempt,
				"max_attempts", p.maxAttempts,
				"backoff_ms", wait.Milliseconds(),
				"error", lastErr,
			)
			retrySleepFunc(wait)
		}

		resp, err := p.inner.Extract(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// IsCircuitOpen reports whether err came from a tripped breaker
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
