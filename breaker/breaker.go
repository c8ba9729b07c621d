// Package breaker guards Services with a circuit breaker.
package breaker

import (
	"context"
	"time"

	"github.com/monzo/terrors"
	"github.com/sony/gobreaker"

	"github.com/monzo/filterchain"
)

// ErrCircuitOpen is the code (beneath internal_service) of errors returned while the circuit is open.
const ErrCircuitOpen = "circuit_open"

// Settings configures a circuit breaker.
type Settings struct {
	// MaxRequests is the number of calls let through while half-open.
	MaxRequests uint32
	// Interval is the cyclic period in which failure counts are cleared while closed. 0 never clears them.
	Interval time.Duration
	// Timeout is how long the circuit stays open before going half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the circuit.
	ConsecutiveFailures uint32
}

// New creates a circuit breaker named name. Errors the caller is responsible for (bad_request, not_found and so on)
// don't count as failures of the Service.
func New(name string, s Settings) *gobreaker.CircuitBreaker {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful})
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	terr, ok := err.(*terrors.Error)
	if !ok {
		return false
	}
	for _, code := range []string{
		terrors.ErrBadRequest,
		terrors.ErrForbidden,
		terrors.ErrNotFound,
		terrors.ErrPreconditionFailed,
		terrors.ErrUnauthorized,
	} {
		if terr.PrefixMatches(code) {
			return true
		}
	}
	return false
}

// Filter passes calls through cb. While the circuit is open, calls fail fast with an internal_service.circuit_open
// error and the downstream Service is not called. Errors from the Service itself are returned unchanged.
func Filter[Req, Rsp any](cb *gobreaker.CircuitBreaker) filterchain.SimpleFilter[Req, Rsp] {
	return func(ctx context.Context, req Req, svc filterchain.Service[Req, Rsp]) (Rsp, error) {
		var rsp Rsp
		_, err := cb.Execute(func() (interface{}, error) {
			var err error
			rsp, err = svc(ctx, req)
			return nil, err
		})
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			var zero Rsp
			return zero, terrors.InternalService(ErrCircuitOpen, "Circuit breaker is open", map[string]string{
				"breaker": cb.Name()})
		}
		return rsp, err
	}
}
