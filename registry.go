package filterchain

import (
	"sort"
	"sync"

	"github.com/monzo/terrors"
)

// A Registry holds a set of named Services of differing types. The zero value is ready to use.
type Registry struct {
	m    sync.RWMutex
	svcs map[string]ErasedService
}

// NewRegistry vends a new, empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		svcs: make(map[string]ErasedService, 10)}
}

// Register associates a Service with a name, replacing any Service previously registered under it.
func (r *Registry) Register(name string, svc ErasedService) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.svcs == nil {
		r.svcs = make(map[string]ErasedService, 10)
	}
	r.svcs[name] = svc
}

// Lookup returns the Service registered under name, if any.
func (r *Registry) Lookup(name string) (ErasedService, bool) {
	r.m.RLock()
	defer r.m.RUnlock()
	svc, ok := r.svcs[name]
	return svc, ok
}

// Names returns the names of all registered Services in lexical order.
func (r *Registry) Names() []string {
	r.m.RLock()
	names := make([]string, 0, len(r.svcs))
	for name := range r.svcs {
		names = append(names, name)
	}
	r.m.RUnlock()
	sort.Strings(names)
	return names
}

// Resolve looks up the Service registered under name and recovers its types. It fails with not_found if nothing is
// registered and with bad_request.type_mismatch if the types don't line up.
func Resolve[Req, Rsp any](r *Registry, name string) (Service[Req, Rsp], error) {
	e, ok := r.Lookup(name)
	if !ok {
		return nil, terrors.NotFound("service", "No service registered", map[string]string{
			"service": name})
	}
	svc, err := Typed[Req, Rsp](e)
	if err != nil {
		return nil, terrors.Augment(err, "Cannot resolve service", map[string]string{
			"service": name})
	}
	return svc, nil
}
