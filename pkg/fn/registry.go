// Package fn implements the function-call interface (component B): a
// registry mapping a function's OID to a callable that takes a vector of
// nullable borrowed datums plus a scalar type parameter, and returns one
// datum. Built-in functions (component H, package builtin) register
// themselves here at process init; Schema's layout computation (package
// schema) and the init-file reader (package initfile) both call through
// this interface rather than depending on the built-in implementations
// directly.
package fn

import (
	"errors"
	"fmt"
	"sync"

	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/ids"
)

// ErrNotFound is returned by Call when the requested OID has no
// registered function.
var ErrNotFound = errors.New("fn: function not registered")

// Func is the shape every registered function takes: a vector of
// nullable, borrowed argument datums and a 64-bit type parameter (used by
// polymorphic types such as VARCHAR(n), whose output function needs the
// declared maximum length), returning one datum.
type Func func(args []datum.NullableDatumRef, typeParam uint64) datum.Datum

// Registry is a table of funcId -> Func. There is no shared global
// instance: each caller builds its own with NewRegistry (the zero value
// is not usable).
type Registry struct {
	mu    sync.RWMutex
	funcs map[ids.OID]Func
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[ids.OID]Func)}
}

// Register installs f under oid, overwriting any previous registration.
// Called at process init by package builtin; a duplicate registration is
// allowed (unlike catalog name collisions) since re-registering the same
// built-in under the same OID is how tests isolate a fresh registry.
func (r *Registry) Register(oid ids.OID, f Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[oid] = f
}

// Lookup returns the Func registered under oid, if any.
func (r *Registry) Lookup(oid ids.OID) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[oid]
	return f, ok
}

// Call invokes the function registered under oid. It fails with
// ErrNotFound when oid is unregistered. A function that conceptually
// returns void is expected to return the integer-zero datum by
// convention; Call does not special-case that here.
func (r *Registry) Call(oid ids.OID, args []datum.NullableDatumRef, typeParam uint64) (datum.Datum, error) {
	f, ok := r.Lookup(oid)
	if !ok {
		return datum.Datum{}, fmt.Errorf("%w: oid %s", ErrNotFound, oid)
	}
	return f(args, typeParam), nil
}

// Call1 is a convenience wrapper for the common case of a single
// argument, used by Schema's layout computation to invoke a type's
// typlen function with its type parameter.
func (r *Registry) Call1(oid ids.OID, arg datum.Datum, typeParam uint64) (datum.Datum, error) {
	ref := arg.NullableRef()
	return r.Call(oid, []datum.NullableDatumRef{ref}, typeParam)
}
