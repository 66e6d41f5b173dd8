package catalog

import (
	"math"
	"strings"
)

// Kind classifies a catalog type.
type Kind string

const (
	// KindObject is a class-like type with declared members.
	KindObject Kind = "object"
	// KindEnum is an enumeration with backed (string or integer) cases.
	KindEnum Kind = "enum"
	// KindDateTime is a type serialized as an RFC 3339 date-time string.
	KindDateTime Kind = "datetime"
	// KindStringable is a type serialized through its string form.
	KindStringable Kind = "stringable"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindObject, KindEnum, KindDateTime, KindStringable:
		return true
	}
	return false
}

// Role distinguishes persisted models from request payload models.
type Role string

const (
	RoleModel   Role = "model"
	RoleRequest Role = "request"
)

// Type describes one named type known to the catalog.
type Type struct {
	// Name is the fully-qualified type name, e.g. `App\Model\User` or
	// `github.com/acme/api.User`.
	Name string `json:"name" yaml:"name" toml:"name"`

	Kind        Kind   `json:"kind" yaml:"kind" toml:"kind"`
	Role        Role   `json:"role,omitempty" yaml:"role,omitempty" toml:"role,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty" toml:"deprecated,omitempty"`

	// Members are the declared members of an object, in declaration order.
	Members []Member `json:"members,omitempty" yaml:"members,omitempty" toml:"members,omitempty"`

	// Cases are the cases of an enumeration, in declaration order.
	Cases []Case `json:"cases,omitempty" yaml:"cases,omitempty" toml:"cases,omitempty"`

	// Serializable marks a type that produces its own JSON output. Its
	// documented output is described by Shape.
	Serializable bool `json:"serializable,omitempty" yaml:"serializable,omitempty" toml:"serializable,omitempty"`

	// Shape is the documented output of a serializable type. A nil Shape
	// means no documentation exists; an empty non-nil Shape documents an
	// untyped object.
	Shape []ShapeEntry `json:"shape,omitempty" yaml:"shape,omitempty" toml:"shape,omitempty"`
}

// IsObject reports whether the type is class-shaped.
func (t *Type) IsObject() bool {
	return t != nil && t.Kind == KindObject
}

// HasShape reports whether the type documents its serialized shape.
func (t *Type) HasShape() bool {
	return t != nil && t.Serializable && t.Shape != nil
}

// EffectiveRole returns the role, defaulting to RoleModel for objects.
func (t *Type) EffectiveRole() Role {
	if t.Role == "" {
		return RoleModel
	}
	return t.Role
}

// Member is a declared member (property/field) of an object type.
type Member struct {
	// Name is the declared member name.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Type is the declared type expression, see package typeexpr.
	Type string `json:"type" yaml:"type" toml:"type"`

	// Alias overrides the exposed name.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty" toml:"alias,omitempty"`

	// Column is the storage column name, used when no alias is set.
	Column string `json:"column,omitempty" yaml:"column,omitempty" toml:"column,omitempty"`

	// Hidden members are never exposed.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty" toml:"hidden,omitempty"`

	// Tag carries schema constraints in openapi struct tag syntax, e.g.
	// "description=User email,format=email,maxLength=255".
	Tag string `json:"tag,omitempty" yaml:"tag,omitempty" toml:"tag,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	// Override replaces the resolved schema with a literal schema object.
	Override map[string]any `json:"override,omitempty" yaml:"override,omitempty" toml:"override,omitempty"`
}

// ExposedName returns the name the member is serialized under: the alias,
// else the storage column, else the declared name.
func (m Member) ExposedName() string {
	switch {
	case m.Alias != "":
		return m.Alias
	case m.Column != "":
		return m.Column
	default:
		return m.Name
	}
}

// Case is one enumeration case. Value is a string or an int64.
type Case struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value any    `json:"value" yaml:"value" toml:"value"`
}

// ShapeEntry is one documented output key of a serializable type.
type ShapeEntry struct {
	Key  string `json:"key" yaml:"key" toml:"key"`
	Type string `json:"type" yaml:"type" toml:"type"`
}

// Key returns the lookup key for a type name: the name without leading
// namespace separators.
func Key(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), `\`)
}

var separatorReplacer = strings.NewReplacer("::", ".", `\`, ".", "/", ".")

// ID derives the identifier used for emitted definitions: namespace
// separators (\ / ::) become dots and leading separators are dropped.
// Distinct types of one catalog never share an ID.
func ID(name string) string {
	return strings.TrimLeft(separatorReplacer.Replace(strings.TrimSpace(name)), ".")
}

// normalizeValue converts decoded case values to string or int64. Decoders
// disagree on numeric types (JSON gives float64, YAML int, TOML int64).
func normalizeValue(v any) (any, bool) {
	switch n := v.(type) {
	case string:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return nil, false
		}
		return int64(n), true
	case float64:
		return wholeFloat(n)
	case float32:
		return wholeFloat(float64(n))
	}
	return nil, false
}

// wholeFloat accepts floats that are integral and fit in int64. 2^63 itself
// is representable as float64 but not as int64.
func wholeFloat(f float64) (any, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, false
	}
	return int64(f), true
}
