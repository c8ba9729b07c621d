package filterchain

import (
	"context"
	"reflect"

	"github.com/monzo/terrors"
)

// An ErasedService is a Service whose request and response types have been hidden so that services of differing
// types can be stored together (for example in a Registry). The concrete types are remembered so that they can be
// checked when the service is recovered with Typed, rather than deep inside a chain when it is first called.
type ErasedService struct {
	reqType reflect.Type
	rspType reflect.Type
	svc     func(ctx context.Context, req interface{}) (interface{}, error)
}

// Erase hides the types of svc.
func Erase[Req, Rsp any](svc Service[Req, Rsp]) ErasedService {
	reqType := reflect.TypeFor[Req]()
	return ErasedService{
		reqType: reqType,
		rspType: reflect.TypeFor[Rsp](),
		svc: func(ctx context.Context, req interface{}) (interface{}, error) {
			r, ok := asType[Req](req)
			if !ok {
				return nil, typeMismatch("request", reqType, reflect.TypeOf(req))
			}
			rsp, err := svc(ctx, r)
			return rsp, err
		}}
}

// RequestType returns the request type of the erased service, or nil if it is empty.
func (e ErasedService) RequestType() reflect.Type {
	return e.reqType
}

// ResponseType returns the response type of the erased service, or nil if it is empty.
func (e ErasedService) ResponseType() reflect.Type {
	return e.rspType
}

// Call invokes the erased service. The dynamic type of req is checked on every call; a mismatch yields a
// bad_request.type_mismatch error without calling the underlying Service.
func (e ErasedService) Call(ctx context.Context, req interface{}) (interface{}, error) {
	if e.svc == nil {
		return nil, errEmptyService()
	}
	return e.svc(ctx, req)
}

// Typed recovers a typed Service from an erased one. Req must be assignable to the erased request type and the erased
// response type must be assignable to Rsp; otherwise a bad_request.type_mismatch error is returned. The check happens
// here, once, so that a misconfigured pipeline fails when it is assembled.
func Typed[Req, Rsp any](e ErasedService) (Service[Req, Rsp], error) {
	if e.svc == nil {
		return nil, errEmptyService()
	}
	reqType, rspType := reflect.TypeFor[Req](), reflect.TypeFor[Rsp]()
	if !reqType.AssignableTo(e.reqType) {
		return nil, typeMismatch("request", e.reqType, reqType)
	}
	if !e.rspType.AssignableTo(rspType) {
		return nil, typeMismatch("response", rspType, e.rspType)
	}

	return func(ctx context.Context, req Req) (Rsp, error) {
		var zero Rsp
		rsp, err := e.svc(ctx, req)
		if err != nil {
			return zero, err
		}
		r, ok := asType[Rsp](rsp)
		if !ok {
			// Unreachable if the erased service honoured its own response type
			return zero, typeMismatch("response", rspType, reflect.TypeOf(rsp))
		}
		return r, nil
	}, nil
}

// asType is a type assertion which also accepts an untyped nil for types which can hold nil.
func asType[T any](v interface{}) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}
	var zero T
	if v == nil {
		switch reflect.TypeFor[T]().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, true
		}
	}
	return zero, false
}

func typeMismatch(what string, want, got reflect.Type) error {
	return terrors.BadRequest(ErrTypeMismatch, "Service "+what+" type mismatch", map[string]string{
		"want": typeName(want),
		"got":  typeName(got)})
}

func errEmptyService() error {
	return terrors.BadRequest(ErrTypeMismatch, "Service is empty", nil)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
