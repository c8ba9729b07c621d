// Package stack assembles the standard filters into a single SimpleFilter from a config.Config.
package stack

import (
	"github.com/monzo/slog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/monzo/filterchain"
	"github.com/monzo/filterchain/breaker"
	"github.com/monzo/filterchain/config"
	"github.com/monzo/filterchain/metrics"
	"github.com/monzo/filterchain/ratelimit"
)

type options struct {
	logger     slog.Logger
	registerer prometheus.Registerer
}

// An Option customises Build.
type Option func(*options)

// WithLogger sends log events to l instead of slog's default logger.
func WithLogger(l slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegisterer registers metrics with r instead of the Prometheus default registerer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// Build returns the filters enabled by cfg chained in their fixed order, outermost first: recover, log, metrics,
// errors, expiration, rate limit, circuit breaker, timeout. name identifies the Service in logs, metrics and the
// circuit breaker.
func Build[Req, Rsp any](name string, cfg config.Config, opts ...Option) (filterchain.SimpleFilter[Req, Rsp], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{
		registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	var filters []filterchain.SimpleFilter[Req, Rsp]
	if cfg.Recover {
		filters = append(filters, filterchain.RecoverFilter[Req, Rsp])
	}
	if cfg.Log {
		filters = append(filters, filterchain.LogFilter[Req, Rsp](name, o.logger))
	}
	if cfg.Metrics {
		m, err := metrics.New(o.registerer)
		if err != nil {
			return nil, err
		}
		filters = append(filters, metrics.Filter[Req, Rsp](m, name))
	}
	if cfg.Errors {
		filters = append(filters, filterchain.ErrorFilter[Req, Rsp])
	}
	if cfg.Expiration {
		filters = append(filters, filterchain.ExpirationFilter[Req, Rsp])
	}
	if rl := cfg.RateLimit; rl != nil {
		filters = append(filters, ratelimit.Filter[Req, Rsp](rate.NewLimiter(rate.Limit(rl.RPS), rl.Burst), rl.Wait))
	}
	if b := cfg.Breaker; b != nil {
		cb := breaker.New(name, breaker.Settings{
			MaxRequests:         b.MaxRequests,
			Interval:            b.Interval,
			Timeout:             b.OpenTimeout,
			ConsecutiveFailures: b.ConsecutiveFailures})
		filters = append(filters, breaker.Filter[Req, Rsp](cb))
	}
	if cfg.Timeout > 0 {
		filters = append(filters, filterchain.TimeoutFilter[Req, Rsp](cfg.Timeout))
	}
	return filterchain.Chain(filters...), nil
}

// Wrap is Build followed by AndThenService(svc).
func Wrap[Req, Rsp any](name string, cfg config.Config, svc filterchain.Service[Req, Rsp], opts ...Option) (filterchain.Service[Req, Rsp], error) {
	f, err := Build[Req, Rsp](name, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return f.AndThenService(svc), nil
}
