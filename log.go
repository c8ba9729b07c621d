package filterchain

import (
	"context"
	"time"

	"github.com/monzo/slog"
)

// LogFilter logs the outcome of every call to the downstream Service under name: successes at debug severity,
// failures at error severity. Events are sent to logger, or to slog's default logger if it is nil.
//
// Errors pass through unchanged.
func LogFilter[Req, Rsp any](name string, logger slog.Logger) SimpleFilter[Req, Rsp] {
	return func(ctx context.Context, req Req, svc Service[Req, Rsp]) (Rsp, error) {
		start := time.Now()
		rsp, err := svc(ctx, req)
		meta := map[string]string{
			"service":  name,
			"duration": time.Since(start).String()}

		l := logger
		if l == nil {
			l = slog.DefaultLogger()
		}
		if err != nil {
			l.Log(slog.Eventf(slog.ErrorSeverity, ctx, "%s failed: %v", name, err, meta))
		} else {
			l.Log(slog.Eventf(slog.DebugSeverity, ctx, "%s succeeded", name, meta))
		}
		return rsp, err
	}
}
