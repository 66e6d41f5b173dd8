package openapi

import (
	"github.com/cockroachdb/errors"

	"github.com/vitalvas/typeschema/catalog"
)

const (
	builtinList      = "list"
	builtinPaginated = "paginated"
)

var builtinModels = map[string]string{
	"ArrayList":          builtinList,
	"ArrayListInterface": builtinList,
	"list":               builtinList,
	"Paginated":          builtinPaginated,
}

// IsBuiltin reports whether name is a builtin collection model.
func IsBuiltin(name string) bool {
	_, ok := builtinModels[catalog.Key(name)]
	return ok
}

// ResponseSpec describes an operation response.
type ResponseSpec struct {
	// Description of the response. Defaults to the model description.
	Description string

	// Model is a type expression or a builtin collection name.
	Model string

	// Generic is the element type of builtin collections.
	Generic string

	// Content is additional content merged into the response.
	Content map[string]*MediaType
}

// Response resolves a response. Builtin collections produce an inline
// response around their collection schema. Catalog objects are stored in
// the responses table and returned as a reference; any other model
// produces an inline response.
func (r *Resolver) Response(spec ResponseSpec) (*Response, error) {
	if spec.Model == "" {
		return &Response{Description: spec.Description, Content: copyContent(spec.Content)}, nil
	}

	if kind, ok := builtinModels[catalog.Key(spec.Model)]; ok {
		return r.builtinResponse(kind, spec)
	}

	typ, err := r.lookup(spec.Model)
	if err != nil {
		return nil, err
	}

	if typ == nil || !(typ.IsObject() || typ.HasShape()) {
		s, err := r.Resolve(spec.Model)
		if err != nil {
			return nil, err
		}
		return newResponse(spec.Description, spec.Content, s), nil
	}

	id := SchemaID(spec.Model)
	if _, ok := r.registry.Response(id); ok {
		return ResponseRef(spec.Model), nil
	}

	s, err := r.Reference(spec.Model, false)
	if err != nil {
		return nil, err
	}

	description := spec.Description
	if description == "" {
		description = typ.Description
	}
	if description == "" {
		description = id
	}

	r.registry.StoreResponse(id, newResponse(description, spec.Content, s))
	return ResponseRef(spec.Model), nil
}

func (r *Resolver) builtinResponse(kind string, spec ResponseSpec) (*Response, error) {
	var (
		s   *Schema
		err error
	)
	switch kind {
	case builtinList:
		s, err = r.List(spec.Generic)
	case builtinPaginated:
		s, err = r.Paginated(spec.Generic)
	default:
		return nil, errors.Wrapf(ErrUnknownBuiltin, "%s", spec.Model)
	}
	if err != nil {
		return nil, err
	}
	return newResponse(spec.Description, spec.Content, s), nil
}

// List returns an array schema of elem.
func (r *Resolver) List(elem string) (*Schema, error) {
	items, err := r.element(elem)
	if err != nil {
		return nil, err
	}
	return &Schema{Type: "array", Items: orAny(items)}, nil
}

// Paginated returns a page of elem with its pagination counters.
func (r *Resolver) Paginated(elem string) (*Schema, error) {
	items, err := r.List(elem)
	if err != nil {
		return nil, err
	}

	s := &Schema{Type: "object"}
	s.SetProperty("items", items)
	for _, name := range []string{"page", "page_size", "pages", "total"} {
		s.SetProperty(name, &Schema{Type: "integer"})
	}
	return s, nil
}

// element resolves a collection element: catalog objects by reference,
// everything else through the engine.
func (r *Resolver) element(elem string) (*Schema, error) {
	if elem == "" {
		return nil, nil
	}

	typ, err := r.lookup(elem)
	if err != nil {
		return nil, err
	}
	if typ != nil && (typ.IsObject() || typ.HasShape()) {
		return r.Reference(elem, false)
	}
	return r.Resolve(elem)
}

func newResponse(description string, content map[string]*MediaType, s *Schema) *Response {
	resp := &Response{Description: description, Content: copyContent(content)}
	if s != nil {
		if resp.Content == nil {
			resp.Content = make(map[string]*MediaType, 1)
		}
		resp.Content[contentTypeJSON] = &MediaType{Schema: s}
	}
	return resp
}

func copyContent(content map[string]*MediaType) map[string]*MediaType {
	if len(content) == 0 {
		return nil
	}
	out := make(map[string]*MediaType, len(content))
	for k, v := range content {
		out[k] = v
	}
	return out
}
