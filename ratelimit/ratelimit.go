// Package ratelimit provides token-bucket admission control for Services.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/monzo/terrors"
	"golang.org/x/time/rate"

	"github.com/monzo/filterchain"
)

// Filter admits calls to the downstream Service at the rate allowed by limiter. With wait unset, a call which finds
// the bucket empty is rejected immediately with a rate_limited error. With wait set, it blocks until a token is
// available, and is rejected only if its context ends (or would end) first.
func Filter[Req, Rsp any](limiter *rate.Limiter, wait bool) filterchain.SimpleFilter[Req, Rsp] {
	return func(ctx context.Context, req Req, svc filterchain.Service[Req, Rsp]) (Rsp, error) {
		if !admit(ctx, limiter, wait) {
			var zero Rsp
			return zero, terrors.RateLimited("", "Rate limit exceeded", nil)
		}
		return svc(ctx, req)
	}
}

func admit(ctx context.Context, limiter *rate.Limiter, wait bool) bool {
	if wait {
		return limiter.Wait(ctx) == nil
	}
	return limiter.Allow()
}

// KeyedLimiter applies a token bucket per key and periodically evicts idle entries.
type KeyedLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	byKey map[string]*entry
	hits  uint64
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyed creates a keyed limiter allowing rps calls per second per key, with bursts of up to burst. Buckets which
// haven't been used for idleTTL (default 10 minutes) are forgotten.
func NewKeyed(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		byKey:   make(map[string]*entry)}
}

// Allow reports whether one token can be consumed for key. The empty key is never limited.
func (l *KeyedLimiter) Allow(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}

// Len returns the number of buckets currently tracked.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// KeyedFilter is like Filter, but takes a token from the bucket for key(req) rather than from a single shared bucket.
func KeyedFilter[Req, Rsp any](l *KeyedLimiter, key func(Req) string) filterchain.SimpleFilter[Req, Rsp] {
	return func(ctx context.Context, req Req, svc filterchain.Service[Req, Rsp]) (Rsp, error) {
		k := key(req)
		if !l.Allow(k) {
			var zero Rsp
			return zero, terrors.RateLimited("", "Rate limit exceeded", map[string]string{
				"key": k})
		}
		return svc(ctx, req)
	}
}
