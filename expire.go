package filterchain

import (
	"context"

	"github.com/monzo/terrors"
)

// ExpirationFilter provides admission control; it rejects requests which are cancelled
func ExpirationFilter[Req, Rsp any](ctx context.Context, req Req, svc Service[Req, Rsp]) (Rsp, error) {
	select {
	case <-ctx.Done():
		var zero Rsp
		return zero, terrors.BadRequest(ErrExpired, "Request has expired", nil)
	default:
		return svc(ctx, req)
	}
}
