package prediction

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"movie-dropoff/internal/common/config"
	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
)

const breakerName = "prediction-service"

// newBreaker trips after cfg.ConsecutiveFailures transport or 5xx failures
// in a row. Client errors, malformed bodies and calls abandoned by a
// cancelled caller do not count against it.
func newBreaker(cfg config.BreakerConfig, log logger.Logger) *gobreaker.CircuitBreaker[interface{}] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    config.GetDuration(cfg.Interval),
		Timeout:     config.GetDuration(cfg.Timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var stdErr *apperrors.StandardError
			if !errors.As(err, &stdErr) {
				return false
			}
			switch stdErr.Code {
			case apperrors.ErrCodeTransportFailure:
				return false
			case apperrors.ErrCodeStatusFailure:
				return !stdErr.Retryable
			default:
				return true
			}
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// execute runs fn through the breaker and casts the result. A rejected call
// surfaces as a transport failure.
func execute[T any](cb *gobreaker.CircuitBreaker[interface{}], endpoint string, fn func() (*T, error)) (*T, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewTransportFailureError(endpoint, err)
		}
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}
