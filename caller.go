package filterchain

import "context"

// A Caller is anything which can serve requests. Service implements it, so do objects that prefer to carry their own
// state rather than closing over it.
type Caller[Req, Rsp any] interface {
	Call(ctx context.Context, req Req) (Rsp, error)
}

// A FilterCaller is the object form of a Filter.
type FilterCaller[ReqIn, RspOut, ReqOut, RspIn any] interface {
	CallFilter(ctx context.Context, req ReqIn, svc Service[ReqOut, RspIn]) (RspOut, error)
}

// ServiceOf returns c as a Service. If c is already a Service it is returned as-is.
func ServiceOf[Req, Rsp any](c Caller[Req, Rsp]) Service[Req, Rsp] {
	if svc, ok := c.(Service[Req, Rsp]); ok {
		return svc
	}
	return c.Call
}

// FilterOf returns fc as a Filter.
func FilterOf[ReqIn, RspOut, ReqOut, RspIn any](fc FilterCaller[ReqIn, RspOut, ReqOut, RspIn]) Filter[ReqIn, RspOut, ReqOut, RspIn] {
	return fc.CallFilter
}

// CallFilter invokes the Filter. It exists so that a Filter satisfies FilterCaller.
func (f Filter[ReqIn, RspOut, ReqOut, RspIn]) CallFilter(ctx context.Context, req ReqIn, svc Service[ReqOut, RspIn]) (RspOut, error) {
	return f(ctx, req, svc)
}
