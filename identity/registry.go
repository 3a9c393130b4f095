package identity

import (
	"fmt"
	"reflect"

	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
	"github.com/uu-dev/uu-bridge/domain/ports"
)

// Registry owns the bidirectional mapping between identifiers and live
// elements for one host session. It is not safe for concurrent use.
type Registry struct {
	lookup   ports.ExternalLookup
	newID    Generator
	elements map[string]ports.Element
	ids      map[ports.Element]string
	retired  map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithExternalLookup enables adoption of pre-existing host objects.
func WithExternalLookup(l ports.ExternalLookup) Option {
	return func(r *Registry) {
		r.lookup = l
	}
}

// WithGenerator replaces the identifier source, mainly for tests.
func WithGenerator(g Generator) Option {
	return func(r *Registry) {
		r.newID = g
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		newID:    NewID,
		elements: make(map[string]ports.Element),
		ids:      make(map[ports.Element]string),
		retired:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewID mints a fresh identifier from the registry's generator.
func (r *Registry) NewID() string {
	return r.newID()
}

// Bind registers el under id. Each identifier is bound exactly once for the
// lifetime of the session, and each element carries a single identifier.
func (r *Registry) Bind(id string, el ports.Element) error {
	if !Validate(id) {
		return bridgeerrors.MalformedNode(id, "invalid identifier")
	}
	if el == nil || !reflect.TypeOf(el).Comparable() {
		return fmt.Errorf("identity: element for %s must be a non-nil comparable handle", id)
	}
	if _, ok := r.retired[id]; ok {
		return &bridgeerrors.IdentityReuseError{ID: id, Retired: true}
	}
	if _, ok := r.elements[id]; ok {
		return &bridgeerrors.IdentityReuseError{ID: id}
	}
	if existing, ok := r.ids[el]; ok {
		return &bridgeerrors.IdentityReuseError{ID: existing}
	}

	r.elements[id] = el
	r.ids[el] = id
	return nil
}

// Lookup returns the element bound to id.
func (r *Registry) Lookup(id string) (ports.Element, bool) {
	el, ok := r.elements[id]
	return el, ok
}

// IDOf returns the identifier bound to el.
func (r *Registry) IDOf(el ports.Element) (string, bool) {
	if el == nil || !reflect.TypeOf(el).Comparable() {
		return "", false
	}
	id, ok := r.ids[el]
	return id, ok
}

// Adopt binds a pre-existing host object found by key under a freshly
// minted identifier. Adopting the same object twice returns the identifier
// it already carries. found is false when no object matches key.
func (r *Registry) Adopt(key string) (id string, found bool, err error) {
	if r.lookup == nil {
		return "", false, nil
	}
	el, ok := r.lookup.LookupExternal(key)
	if !ok {
		return "", false, nil
	}
	if existing, ok := r.IDOf(el); ok {
		return existing, true, nil
	}

	id = r.NewID()
	if err := r.Bind(id, el); err != nil {
		return "", true, err
	}
	return id, true, nil
}

// Retire unbinds id permanently and returns the element it carried.
func (r *Registry) Retire(id string) (ports.Element, bool) {
	el, ok := r.elements[id]
	if !ok {
		return nil, false
	}
	delete(r.elements, id)
	delete(r.ids, el)
	r.retired[id] = struct{}{}
	return el, true
}

// IsRetired reports whether id was bound once and has since been retired.
func (r *Registry) IsRetired(id string) bool {
	_, ok := r.retired[id]
	return ok
}

// Len returns the number of live bindings.
func (r *Registry) Len() int {
	return len(r.elements)
}
