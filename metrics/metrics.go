// Package metrics records Prometheus metrics for Services.
package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/monzo/terrors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/monzo/filterchain"
)

// Outcome label values which are not terror codes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the collectors shared by every Filter created from it.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. If equivalent collectors are already registered (eg. by
// another call to New with the same Registerer) those are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filterchain",
		Name:      "service_calls_total",
		Help:      "Service calls by service and outcome.",
	}, []string{"service", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "filterchain",
		Name:      "service_call_duration_seconds",
		Help:      "Service call latency by service.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service"})

	if err := reg.Register(calls); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, terrors.Augment(err, "Failed to register calls counter", nil)
		}
		calls = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, terrors.Augment(err, "Failed to register duration histogram", nil)
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}

	return &Metrics{
		calls:    calls,
		duration: duration}, nil
}

// Outcome classifies an error for the outcome label: success, the top-level terror code (eg. bad_request), or error
// for anything which isn't a terror.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if terr, ok := err.(*terrors.Error); ok && terr.Code != "" {
		return strings.SplitN(terr.Code, ".", 2)[0]
	}
	return OutcomeError
}

// Filter counts and times every call to the downstream Service, labelled with service.
func Filter[Req, Rsp any](m *Metrics, service string) filterchain.SimpleFilter[Req, Rsp] {
	duration := m.duration.WithLabelValues(service)
	return func(ctx context.Context, req Req, svc filterchain.Service[Req, Rsp]) (Rsp, error) {
		start := time.Now()
		rsp, err := svc(ctx, req)
		duration.Observe(time.Since(start).Seconds())
		m.calls.WithLabelValues(service, Outcome(err)).Inc()
		return rsp, err
	}
}
