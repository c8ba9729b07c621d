package filterchain

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/monzo/slog"
	"github.com/monzo/terrors"
)

// RecoverFilter turns a panic in the downstream Service into an internal_service.panic error, so that one bad
// request can't take down the process.
func RecoverFilter[Req, Rsp any](ctx context.Context, req Req, svc Service[Req, Rsp]) (rsp Rsp, err error) {
	defer func() {
		if v := recover(); v != nil {
			slog.Error(ctx, "Recovered from panic in service: %v", v, map[string]string{
				"stack": string(debug.Stack())})
			var zero Rsp
			rsp = zero
			err = terrors.InternalService(ErrPanic, fmt.Sprintf("Service panicked: %v", v), nil)
		}
	}()
	return svc(ctx, req)
}
