package openapi

import (
	"strings"

	"go.uber.org/zap"

	"github.com/vitalvas/typeschema/typeexpr"
)

// shapeTypes are the primitive names allowed in documented shapes. Unlike
// member types they carry no format.
var shapeTypes = map[string]string{
	"array":   "array",
	"bool":    "boolean",
	"boolean": "boolean",
	"float":   "number",
	"double":  "number",
	"int":     "integer",
	"integer": "integer",
	"string":  "string",
	"mixed":   "",
}

// shapeBuilder describes types with a custom JSON encoding from their
// documented output shape.
type shapeBuilder struct{}

func (shapeBuilder) Name() string { return "shape" }
func (shapeBuilder) Tier() Tier   { return TierReferenced }

func (shapeBuilder) Match(c Candidate) bool {
	return c.Type.HasShape()
}

func (shapeBuilder) Build(r *Resolver, c Candidate) (*Schema, error) {
	s := &Schema{Type: "object", Nullable: c.Nullable}
	if c.Type == nil {
		return s, nil
	}

	s.Description = c.Type.Description
	s.Deprecated = c.Type.Deprecated

	for _, entry := range c.Type.Shape {
		prop, err := r.shapeEntry(entry.Type)
		if err != nil {
			return nil, err
		}
		if prop == nil {
			r.logger.Debug("shape entry skipped",
				zap.String("type", c.Type.Name),
				zap.String("key", entry.Key),
				zap.String("expr", entry.Type),
			)
			continue
		}
		s.SetProperty(entry.Key, prop)
	}

	return s, nil
}

// shapeEntry resolves one documented shape entry. nil means the key is
// left out.
func (r *Resolver) shapeEntry(expr string) (*Schema, error) {
	d, err := typeexpr.Parse(expr)
	if err != nil {
		return nil, nil
	}
	d = d.Without(r.engine.markers...)

	switch d.Container {
	case typeexpr.Array, typeexpr.Map:
		items, err := r.shapeUnion(d.Types, false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: orAny(items), Nullable: d.Nullable}, nil

	case typeexpr.Dict:
		values, err := r.shapeUnion(d.Types, false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: orAny(values), Nullable: d.Nullable}, nil
	}

	return r.shapeUnion(d.Types, d.Nullable)
}

func (r *Resolver) shapeUnion(types []string, nullable bool) (*Schema, error) {
	if len(types) == 1 {
		return r.shapeName(types[0], nullable)
	}

	var parts []*Schema
	for _, t := range types {
		s, err := r.shapeName(t, false)
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

func (r *Resolver) shapeName(name string, nullable bool) (*Schema, error) {
	if !typeexpr.IsPlainName(name) {
		s, err := r.shapeEntry(name)
		if err != nil {
			return nil, err
		}
		return r.withNullable(s, nullable), nil
	}

	if typ, ok := shapeTypes[strings.ToLower(name)]; ok {
		s := &Schema{Type: typ, Nullable: nullable}
		if typ == "array" {
			s.Items = &Schema{}
		}
		return s, nil
	}

	s, matched, err := r.tryDispatch(name, nullable)
	if err != nil || !matched {
		return nil, err
	}
	return s, nil
}
