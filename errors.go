package filterchain

import (
	"context"

	"github.com/monzo/terrors"
)

// Error codes used by this package, always beneath a generic terrors code (eg. bad_request.type_mismatch).
const (
	ErrTypeMismatch = "type_mismatch"
	ErrExpired      = "expired"
	ErrPanic        = "panic"
)

// ErrorFilter normalises errors returned by the downstream Service into terrors, so that callers further up the
// chain can match on codes. Errors which are already terrors are returned untouched; anything else becomes an
// internal_service error carrying the original message, with the original error as its cause.
func ErrorFilter[Req, Rsp any](ctx context.Context, req Req, svc Service[Req, Rsp]) (Rsp, error) {
	rsp, err := svc(ctx, req)
	if err == nil {
		return rsp, nil
	}
	if terr, ok := err.(*terrors.Error); ok {
		return rsp, terr
	}

	// If the error string is empty re-write the error with what we know
	if err.Error() == "" {
		return rsp, terrors.NewInternalWithCause(err, "Service error", nil, "")
	}
	return rsp, terrors.Propagate(err)
}
