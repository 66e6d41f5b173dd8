package openapi

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry holds the component schemas and responses produced during one
// document build. Entries are keyed by SchemaID and never removed once
// finished. A Registry is not safe for concurrent use.
type Registry struct {
	schemas   *orderedmap.OrderedMap[string, *Schema]
	responses *orderedmap.OrderedMap[string, *Response]
	pending   map[string]bool
	null      *Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:   orderedmap.New[string, *Schema](),
		responses: orderedmap.New[string, *Response](),
		pending:   make(map[string]bool),
		null:      &Schema{Nullable: true},
	}
}

// NullSchema returns the registry's shared {nullable: true} schema used
// as the second branch of nullable reference wrappers.
func (r *Registry) NullSchema() *Schema {
	return r.null
}

// Schema returns the stored schema for id. Placeholders of definitions
// still under construction are returned as well.
func (r *Registry) Schema(id string) (*Schema, bool) {
	return r.schemas.Get(id)
}

// HasSchema reports whether id is stored or reserved.
func (r *Registry) HasSchema(id string) bool {
	_, ok := r.schemas.Get(id)
	return ok
}

// Pending reports whether id is reserved but not yet filled.
func (r *Registry) Pending(id string) bool {
	return r.pending[id]
}

// Reserve stores an empty placeholder under id and returns it. Nested
// resolutions that reach id see the placeholder and emit a Reference
// instead of descending again.
func (r *Registry) Reserve(id string) *Schema {
	if s, ok := r.schemas.Get(id); ok {
		return s
	}
	placeholder := &Schema{}
	r.schemas.Set(id, placeholder)
	r.pending[id] = true
	return placeholder
}

// Fill completes a reserved entry in place, so every holder of the
// placeholder observes the finished definition.
func (r *Registry) Fill(id string, s *Schema) {
	placeholder, ok := r.schemas.Get(id)
	if !ok {
		r.schemas.Set(id, s)
		return
	}
	if placeholder != s {
		*placeholder = *s
	}
	delete(r.pending, id)
}

// Release drops an unfinished reservation. Finished entries are kept.
func (r *Registry) Release(id string) {
	if !r.pending[id] {
		return
	}
	r.schemas.Delete(id)
	delete(r.pending, id)
}

// Response returns the stored response for id.
func (r *Registry) Response(id string) (*Response, bool) {
	return r.responses.Get(id)
}

// StoreResponse stores a response under id unless one exists already.
func (r *Registry) StoreResponse(id string, resp *Response) {
	if _, ok := r.responses.Get(id); ok {
		return
	}
	r.responses.Set(id, resp)
}

// Len returns the number of stored schemas and responses.
func (r *Registry) Len() (schemas, responses int) {
	return r.schemas.Len(), r.responses.Len()
}

// Snapshot is a copy of the registry tables sorted by id.
type Snapshot struct {
	Schemas   *orderedmap.OrderedMap[string, *Schema]
	Responses *orderedmap.OrderedMap[string, *Response]
}

// Snapshot returns the finished entries sorted lexicographically by id.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Schemas:   sortedCopy(r.schemas, r.pending),
		Responses: sortedCopy(r.responses, nil),
	}
}

func sortedCopy[V any](m *orderedmap.OrderedMap[string, V], skip map[string]bool) *orderedmap.OrderedMap[string, V] {
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if !skip[pair.Key] {
			keys = append(keys, pair.Key)
		}
	}
	sort.Strings(keys)

	out := orderedmap.New[string, V]()
	for _, k := range keys {
		v, _ := m.Get(k)
		out.Set(k, v)
	}
	return out
}
