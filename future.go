package filterchain

import "context"

// A Future is the eventual response of a Service call running on another goroutine.
type Future[Rsp any] struct {
	cancel context.CancelFunc
	done   <-chan struct{} // guards access to r
	r      result[Rsp]
}

// WaitC returns a channel which is closed once the response is available.
func (f *Future[Rsp]) WaitC() <-chan struct{} {
	return f.done
}

// Response blocks until the call completes and returns its outcome.
func (f *Future[Rsp]) Response() (Rsp, error) {
	<-f.WaitC()
	return f.r.rsp, f.r.err
}

// Cancel cancels the context the call is running with. It is a no-op once the call has completed.
func (f *Future[Rsp]) Cancel() {
	f.cancel()
}

// SendVia calls svc with req on a new goroutine, returning immediately. The call runs with a child of ctx which is
// cancelled when the call returns or when the Future is cancelled.
func SendVia[Req, Rsp any](ctx context.Context, req Req, svc Service[Req, Rsp]) *Future[Rsp] {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f := &Future[Rsp]{
		done:   done,
		cancel: cancel}
	go func() {
		defer close(done)
		defer cancel() // if already cancelled on escape, this is a no-op
		rsp, err := svc(ctx, req)
		f.r = result[Rsp]{rsp: rsp, err: err}
	}()
	return f
}

// Send is SendVia with the receiver as the Service.
func (svc Service[Req, Rsp]) Send(ctx context.Context, req Req) *Future[Rsp] {
	return SendVia(ctx, req, svc)
}
