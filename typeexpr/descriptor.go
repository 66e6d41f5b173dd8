package typeexpr

import (
	"slices"
	"strings"
)

// Container describes the wrapper applied to all alternatives of a Descriptor.
type Container int

const (
	// None means the alternatives are used as-is.
	None Container = iota
	// Array is a list of elements: Foo[], array, list<Foo>, array<Foo>.
	Array
	// Map is a keyed array: array<string, Foo>. It is emitted as an array.
	Map
	// Dict is a dictionary keyed by string: map<string, Foo>.
	Dict
)

// String returns the container name.
func (c Container) String() string {
	switch c {
	case Array:
		return "array"
	case Map:
		return "map"
	case Dict:
		return "dict"
	default:
		return "none"
	}
}

// NullName is the alternative that marks an expression as nullable.
const NullName = "null"

// Descriptor is the parsed form of a type expression.
type Descriptor struct {
	// Types holds the non-null alternatives in source order. Each entry is a
	// canonical sub-expression: usually a plain type name, but it may itself
	// denote a container (for example "Foo[]") when mixed with other
	// alternatives.
	Types []string

	// Nullable reports whether a null alternative was present.
	Nullable bool

	// Container is the shape wrapping the whole set of alternatives.
	Container Container

	// Key is the key type of Map and Dict containers.
	Key string
}

// Of returns a descriptor for a single plain type name.
func Of(name string, nullable bool) Descriptor {
	return Descriptor{Types: []string{name}, Nullable: nullable}
}

// Empty reports whether the descriptor names nothing that can be resolved.
// A container without element types is not empty (an untyped array).
func (d Descriptor) Empty() bool {
	return len(d.Types) == 0 && d.Container == None
}

// Without returns a copy of the descriptor with the named alternatives
// removed. Names are compared case-insensitively after trimming a leading
// namespace separator.
func (d Descriptor) Without(names ...string) Descriptor {
	if len(names) == 0 || len(d.Types) == 0 {
		return d
	}

	out := d
	out.Types = make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		if !containsName(names, t) {
			out.Types = append(out.Types, t)
		}
	}
	return out
}

// Has reports whether one of the alternatives matches any of the names,
// using the same comparison as Without.
func (d Descriptor) Has(names ...string) bool {
	for _, t := range d.Types {
		if containsName(names, t) {
			return true
		}
	}
	return false
}

// String renders the descriptor back into canonical expression form.
func (d Descriptor) String() string {
	var inner string
	switch len(d.Types) {
	case 0:
	case 1:
		inner = d.Types[0]
	default:
		inner = strings.Join(d.Types, "|")
	}

	var s string
	switch d.Container {
	case Array:
		switch {
		case inner == "":
			s = "array"
		case strings.Contains(inner, "|"):
			s = "(" + inner + ")[]"
		default:
			s = inner + "[]"
		}
	case Map:
		s = "array<" + d.keyOrString() + ", " + orMixed(inner) + ">"
	case Dict:
		s = "map<" + d.keyOrString() + ", " + orMixed(inner) + ">"
	default:
		s = inner
	}

	if d.Nullable {
		if s == "" {
			return NullName
		}
		return s + "|" + NullName
	}
	return s
}

func (d Descriptor) keyOrString() string {
	if d.Key == "" {
		return "string"
	}
	return d.Key
}

func orMixed(s string) string {
	if s == "" {
		return "mixed"
	}
	return s
}

// IsPlainName reports whether s is a single type name rather than a compound
// expression that needs to be parsed again.
func IsPlainName(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, "|[]<>(),? ")
}

func containsName(names []string, t string) bool {
	t = normalizeName(t)
	return slices.ContainsFunc(names, func(n string) bool {
		return strings.EqualFold(normalizeName(n), t)
	})
}

func normalizeName(s string) string {
	return strings.TrimLeft(s, `\`)
}
