package filterchain

import "context"

// A Service is a function that takes a request and produces a response. Services are used symmetrically in
// both clients and servers: anything from a transport-backed client to a piece of business logic can be a Service.
//
// Any function with this signature is a Service; no wrapping is required. Errors returned by the function reach the
// caller unchanged.
type Service[Req, Rsp any] func(ctx context.Context, req Req) (Rsp, error)

// Call invokes the Service. It exists so that a Service satisfies Caller.
func (svc Service[Req, Rsp]) Call(ctx context.Context, req Req) (Rsp, error) {
	return svc(ctx, req)
}

// Filter vends a new service wrapped in the passed filter.
func (svc Service[Req, Rsp]) Filter(f Filter[Req, Rsp, Req, Rsp]) Service[Req, Rsp] {
	return f.AndThenService(svc)
}
