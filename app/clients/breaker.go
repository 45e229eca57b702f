// Package clients talks to the third-party services folio depends on. Every
// call runs through a circuit breaker so an unavailable provider fails fast.
package clients

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"folio/app/logging"
	"folio/app/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerFailureThreshold = 5
	breakerTimeout          = 30 * time.Second
	requestTimeout          = 10 * time.Second
)

// breaker guards one upstream service
type breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

func newBreaker(name string) *breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &breaker{name: name, cb: cb}
}

func (b *breaker) execute(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	rejected := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	metrics.RecordExternalRequest(b.name, err, rejected)
	return err
}

// State returns the breaker state name: closed, half-open or open.
func (b *breaker) State() string {
	return b.cb.State().String()
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

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// checkStatus turns a non-2xx response into an error carrying the body.
func checkStatus(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body)", service, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, string(body))
}
