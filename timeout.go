package filterchain

import (
	"context"
	"strconv"
	"time"

	"github.com/monzo/terrors"
)

// TimeoutMetadataKey is the Metadata key from which TimeoutFilter reads a per-request timeout, in milliseconds.
const TimeoutMetadataKey = "Timeout"

// TimeoutFilter bounds the time the downstream Service has to respond. The deadline is defaultTimeout unless the
// request context carries a Timeout metadata value. If the Service is still running when the deadline passes, the
// filter returns a timeout error without waiting for it; the Service sees its context cancelled. If the caller's own
// context is cancelled first, its error is returned instead.
func TimeoutFilter[Req, Rsp any](defaultTimeout time.Duration) SimpleFilter[Req, Rsp] {
	return func(ctx context.Context, req Req, svc Service[Req, Rsp]) (Rsp, error) {
		timeout := defaultTimeout
		if t, err := strconv.Atoi(MetadataFromContext(ctx).Get(TimeoutMetadataKey)); err == nil {
			timeout = time.Duration(t) * time.Millisecond
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		rspChan := make(chan result[Rsp], 1)
		go func() {
			// Panics are handed back to the calling goroutine, where filters further out can recover them
			defer func() {
				if v := recover(); v != nil {
					rspChan <- result[Rsp]{panicked: v}
				}
			}()
			rsp, err := svc(ctx, req)
			rspChan <- result[Rsp]{rsp: rsp, err: err}
		}()

		select {
		case r := <-rspChan:
			if r.panicked != nil {
				panic(r.panicked)
			}
			return r.rsp, r.err
		case <-ctx.Done():
			var zero Rsp
			if err := ctx.Err(); err != context.DeadlineExceeded {
				return zero, err
			}
			return zero, terrors.Timeout("", "Request timed out", map[string]string{
				"timeout": timeout.String()})
		}
	}
}

// result is the outcome of a Service call which ran on another goroutine.
type result[Rsp any] struct {
	rsp      Rsp
	err      error
	panicked interface{}
}
