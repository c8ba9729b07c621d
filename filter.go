package filterchain

import "context"

// Filter functions compose with Services to modify their behaviour. They might change a service's input or output, or
// elect not to call the underlying service at all.
//
// A Filter receives a request of type ReqIn and the downstream Service, which accepts ReqOut and yields RspIn. It
// returns RspOut to its own caller. Within a single call a Filter may transform the request, short-circuit, call the
// downstream Service several times, transform the response or intercept its error. Errors it does not intercept
// should be returned as-is.
//
// These are typically useful to encapsulate common logic that is shared among multiple Services. Authentication,
// authorisation, rate limiting, and tracing are good examples.
type Filter[ReqIn, RspOut, ReqOut, RspIn any] func(ctx context.Context, req ReqIn, svc Service[ReqOut, RspIn]) (RspOut, error)

// SimpleFilter is a Filter which does not change the request or response types of the Service it wraps, only their
// values.
type SimpleFilter[Req, Rsp any] = Filter[Req, Rsp, Req, Rsp]

// AndThenService terminates the filter with svc, returning a Service which passes each request through f with svc
// as the downstream.
func (f Filter[ReqIn, RspOut, ReqOut, RspIn]) AndThenService(svc Service[ReqOut, RspIn]) Service[ReqIn, RspOut] {
	return func(ctx context.Context, req ReqIn) (RspOut, error) {
		return f(ctx, req, svc)
	}
}

// AndThen chains next behind f. It is the method form of the AndThen function, usable when next does not change the
// types f delegates with.
func (f Filter[ReqIn, RspOut, ReqOut, RspIn]) AndThen(next Filter[ReqOut, RspIn, ReqOut, RspIn]) Filter[ReqIn, RspOut, ReqOut, RspIn] {
	return AndThen(f, next)
}

// AndThen chains two filters: the downstream Service given to f is next terminated with the eventual Service.
//
// Composition is associative, so AndThen(f1, f2).AndThenService(s) behaves identically to
// f1.AndThenService(f2.AndThenService(s)).
func AndThen[ReqIn, RspOut, ReqOut, RspIn, ReqOut2, RspIn2 any](
	f Filter[ReqIn, RspOut, ReqOut, RspIn],
	next Filter[ReqOut, RspIn, ReqOut2, RspIn2],
) Filter[ReqIn, RspOut, ReqOut2, RspIn2] {
	return func(ctx context.Context, req ReqIn, svc Service[ReqOut2, RspIn2]) (RspOut, error) {
		return f(ctx, req, next.AndThenService(svc))
	}
}

// Identity returns a SimpleFilter which forwards every request to the downstream Service untouched.
func Identity[Req, Rsp any]() SimpleFilter[Req, Rsp] {
	return func(ctx context.Context, req Req, svc Service[Req, Rsp]) (Rsp, error) {
		return svc(ctx, req)
	}
}

// Chain folds filters into one, outermost first. Chain() is the Identity filter.
func Chain[Req, Rsp any](filters ...SimpleFilter[Req, Rsp]) SimpleFilter[Req, Rsp] {
	if len(filters) == 0 {
		return Identity[Req, Rsp]()
	}
	f := filters[0]
	for _, next := range filters[1:] {
		f = AndThen(f, next)
	}
	return f
}
