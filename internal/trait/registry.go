package trait

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Registry is the name-keyed collection of trait specs one module declares.
// Declaration problems accumulate in the owning module's error list rather
// than aborting, so the user sees every misconfiguration in one pass.
type Registry struct {
	owner  string
	names  []string
	specs  map[string]*Spec
	errs   []string
	frozen bool
}

// NewRegistry creates an empty registry owned by the named module.
func NewRegistry(owner string) *Registry {
	return &Registry{
		owner: owner,
		specs: make(map[string]*Spec),
	}
}

// Owner returns the name of the module that owns this registry.
func (r *Registry) Owner() string { return r.owner }

// Declare registers a new trait spec and returns it for fluent configuration.
// Re-declaring an existing name records an error and returns a detached spec:
// safe to keep chaining on, but never stored, so the first declaration's
// attributes are preserved.
func (r *Registry) Declare(access Access, name, desc string, typ cty.Type) *Spec {
	spec := &Spec{reg: r, name: name, desc: desc, typ: typ, access: access}
	if r.frozen {
		r.errorf("module %q is declaring trait %q after its setup phase ended", r.owner, name)
		spec.frozen = true
		return spec
	}
	if _, ok := r.specs[name]; ok {
		r.errorf("module %q is creating a duplicate trait named %q", r.owner, name)
		return spec
	}
	r.names = append(r.names, name)
	r.specs[name] = spec
	return spec
}

// Lookup returns the stored spec for a name, if one exists.
func (r *Registry) Lookup(name string) (*Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Has reports whether a trait with the given name has been declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Len returns the number of stored specs.
func (r *Registry) Len() int { return len(r.names) }

// Specs returns the stored specs in declaration order.
func (r *Registry) Specs() []*Spec {
	out := make([]*Spec, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.specs[name])
	}
	return out
}

// Errors returns every declaration problem recorded so far.
func (r *Registry) Errors() []string { return r.errs }

// AddError records a module-level configuration problem alongside the
// declaration errors, surfaced together at validation time.
func (r *Registry) AddError(msg string) {
	r.errs = append(r.errs, msg)
}

// Freeze ends the setup phase: all stored specs become immutable and any
// later declaration or mutation is recorded as an error.
func (r *Registry) Freeze() {
	r.frozen = true
	for _, s := range r.specs {
		s.frozen = true
	}
}

// Frozen reports whether the setup phase has ended.
func (r *Registry) Frozen() bool { return r.frozen }

func (r *Registry) errorf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}
