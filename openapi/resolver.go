package openapi

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/vitalvas/typeschema/catalog"
	"github.com/vitalvas/typeschema/typeexpr"
)

// Resolver converts type expressions into schemas and references for one
// document build. It owns the Registry of that build and must not be used
// from more than one goroutine.
type Resolver struct {
	engine   *Engine
	builders *Builders
	registry *Registry
	logger   *zap.Logger

	// owners maps each SchemaID to the type name that defined it.
	owners map[string]string
}

// Registry returns the registry filled by this resolver.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Snapshot returns the component schemas and responses sorted by id.
func (r *Resolver) Snapshot() Snapshot {
	return r.registry.Snapshot()
}

// Logger returns the resolver logger.
func (r *Resolver) Logger() *zap.Logger {
	return r.logger
}

// Resolve parses a type expression and resolves it. A malformed expression
// degrades to a placeholder string schema carrying the raw expression.
// An empty expression yields nil: the caller omits the member.
func (r *Resolver) Resolve(expr string) (*Schema, error) {
	d, err := typeexpr.Parse(expr)
	if err != nil {
		r.logger.Debug("unparseable type expression",
			zap.String("expr", expr),
			zap.Error(err),
		)
		return r.fallback([]string{strings.TrimSpace(expr)}), nil
	}
	return r.ResolveDescriptor(d)
}

// ResolveDescriptor resolves a parsed descriptor. Containers wrap the
// resolution of their alternatives; more than one alternative yields a
// oneOf. Nullability is applied to the outermost schema.
func (r *Resolver) ResolveDescriptor(d typeexpr.Descriptor) (*Schema, error) {
	if d.Empty() {
		return nil, nil
	}

	switch d.Container {
	case typeexpr.Array, typeexpr.Map:
		items, err := r.resolveAlternatives(d.Types, false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: orAny(items), Nullable: d.Nullable}, nil

	case typeexpr.Dict:
		values, err := r.resolveAlternatives(d.Types, false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: orAny(values), Nullable: d.Nullable}, nil
	}

	return r.resolveAlternatives(d.Types, d.Nullable)
}

func (r *Resolver) resolveAlternatives(types []string, nullable bool) (*Schema, error) {
	switch len(types) {
	case 0:
		return nil, nil
	case 1:
		return r.resolveName(types[0], nullable)
	}

	var parts []*Schema
	for _, t := range types {
		s, err := r.resolveName(t, false)
		if err != nil {
			return nil, err
		}
		if s != nil {
			parts = append(parts, s)
		}
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return r.withNullable(parts[0], nullable), nil
	}
	return &Schema{OneOf: parts, Nullable: nullable}, nil
}

// resolveName resolves one alternative. Compound alternatives such as
// "Foo[]" are parsed again; plain names go through dispatch.
func (r *Resolver) resolveName(name string, nullable bool) (*Schema, error) {
	if !typeexpr.IsPlainName(name) {
		d, err := typeexpr.Parse(name)
		if err != nil {
			return r.fallback([]string{name}), nil
		}
		d.Nullable = d.Nullable || nullable
		return r.ResolveDescriptor(d)
	}
	return r.dispatch(name, nullable)
}

func (r *Resolver) dispatch(name string, nullable bool) (*Schema, error) {
	s, matched, err := r.tryDispatch(name, nullable)
	if err != nil || matched {
		return s, err
	}
	return r.fallback([]string{name}), nil
}

// tryDispatch offers a name to the builders tier by tier. matched is false
// when no builder accepts it.
func (r *Resolver) tryDispatch(name string, nullable bool) (s *Schema, matched bool, err error) {
	typ, err := r.lookup(name)
	if err != nil {
		return nil, false, err
	}
	c := Candidate{Name: name, Type: typ, Nullable: nullable}

	for tier := TierDirect; tier < tierCount; tier++ {
		for _, b := range r.builders.Tier(tier) {
			if !b.Match(c) {
				continue
			}
			if tier == TierReferenced {
				s, err = r.referenced(b, c)
			} else {
				s, err = b.Build(r, c)
			}
			return s, true, err
		}
	}
	return nil, false, nil
}

// referenced stores the builder's definition under the candidate's
// SchemaID and returns a Reference to it.
func (r *Resolver) referenced(b Builder, c Candidate) (*Schema, error) {
	id := SchemaID(c.Name)
	if err := r.claim(id, c.Name); err != nil {
		return nil, err
	}
	if !r.registry.HasSchema(id) {
		if err := r.define(id, b, Candidate{Name: c.Name, Type: c.Type}); err != nil {
			return nil, err
		}
		if !r.registry.HasSchema(id) {
			return nil, nil
		}
	}
	return r.reference(id, c.Nullable), nil
}

// Reference returns a Reference to the definition of a catalog type,
// building and storing the definition first when needed. A nullable use
// of a non-nullable definition is wrapped as anyOf [ref, null]. Names the
// catalog does not know yield an *IntrospectionError.
func (r *Resolver) Reference(name string, nullable bool) (*Schema, error) {
	id := SchemaID(name)
	if err := r.claim(id, name); err != nil {
		return nil, err
	}
	if r.registry.HasSchema(id) {
		r.logger.Debug("schema cache hit", zap.String("id", id))
		return r.reference(id, nullable), nil
	}

	typ, err := r.engine.types.Lookup(name)
	if err != nil {
		return nil, &IntrospectionError{Type: name, Err: err}
	}

	if err := r.define(id, definitionBuilder(typ), Candidate{Name: name, Type: typ}); err != nil {
		return nil, err
	}
	if !r.registry.HasSchema(id) {
		return nil, nil
	}
	return r.Reference(name, nullable)
}

func (r *Resolver) reference(id string, nullable bool) *Schema {
	ref := &Schema{Ref: schemaRefPrefix + id}
	if stored, ok := r.registry.Schema(id); ok && nullable && !stored.Nullable {
		return &Schema{AnyOf: []*Schema{ref, r.registry.NullSchema()}}
	}
	return ref
}

// claim records name as the owner of id. A second type whose name maps to
// the same id is an *IntrospectionError wrapping catalog.ErrDuplicateType.
func (r *Resolver) claim(id, name string) error {
	key := catalog.Key(name)
	if owner, ok := r.owners[id]; ok && owner != key {
		return &IntrospectionError{
			Type: name,
			Err:  errors.Wrapf(catalog.ErrDuplicateType, "id %q already used by %s", id, owner),
		}
	}
	if r.owners == nil {
		r.owners = make(map[string]string)
	}
	r.owners[id] = key
	return nil
}

// define reserves id, builds the definition and fills the reservation.
// The reservation is what breaks cycles: a nested resolution of the same
// type finds it and emits a Reference.
func (r *Resolver) define(id string, b Builder, c Candidate) error {
	r.registry.Reserve(id)

	s, err := b.Build(r, c)
	if err != nil {
		r.registry.Release(id)
		return err
	}
	if s == nil {
		r.registry.Release(id)
		return nil
	}

	r.registry.Fill(id, s)
	r.logger.Debug("schema defined", zap.String("id", id), zap.String("builder", b.Name()))
	return nil
}

// definitionBuilder picks the builder for a stored definition.
func definitionBuilder(typ *catalog.Type) Builder {
	switch {
	case typ.Kind == catalog.KindEnum:
		return enumBuilder{}
	case typ.Kind == catalog.KindDateTime:
		return dateTimeBuilder{}
	case typ.Kind == catalog.KindStringable:
		return stringBuilder{}
	case typ.HasShape():
		return shapeBuilder{}
	default:
		return objectBuilder{}
	}
}

// lookup returns the catalog entry for name, nil when unknown.
func (r *Resolver) lookup(name string) (*catalog.Type, error) {
	typ, err := r.engine.types.Lookup(name)
	if err == nil {
		return typ, nil
	}
	if errors.Is(err, catalog.ErrUnknownType) {
		return nil, nil
	}
	return nil, &IntrospectionError{Type: name, Err: err}
}

// withNullable marks a schema nullable. References are wrapped rather than
// mutated.
func (r *Resolver) withNullable(s *Schema, nullable bool) *Schema {
	if !nullable || s == nil {
		return s
	}
	if s.IsRef() {
		return &Schema{AnyOf: []*Schema{s, r.registry.NullSchema()}}
	}
	s.Nullable = true
	return s
}

// fallback is the placeholder for names no builder accepts: a string
// schema whose pattern lists the unresolved names.
func (r *Resolver) fallback(names []string) *Schema {
	pattern, err := json.MarshalNoEscape(names)
	if err != nil {
		pattern = []byte(strings.Join(names, "|"))
	}

	r.logger.Debug("unresolved type, emitting placeholder", zap.Strings("types", names))
	return &Schema{Type: "string", Pattern: string(pattern)}
}

func orAny(s *Schema) *Schema {
	if s == nil {
		return &Schema{}
	}
	return s
}
