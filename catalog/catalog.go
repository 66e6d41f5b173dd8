package catalog

import (
	"sort"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownType is returned by Lookup for names the catalog does not hold.
	ErrUnknownType = errors.New("catalog: unknown type")

	// ErrDuplicateType is returned by Add when a name is registered twice or
	// when two names map to the same ID.
	ErrDuplicateType = errors.New("catalog: duplicate type")

	// ErrInvalidType is returned by Add for malformed type definitions.
	ErrInvalidType = errors.New("catalog: invalid type")
)

// Catalog is an in-memory set of type definitions keyed by name.
// It is safe for concurrent reads once populated.
type Catalog struct {
	types map[string]*Type
	ids   map[string]string
	order []string
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		types: make(map[string]*Type),
		ids:   make(map[string]string),
	}
}

// Add validates and registers types. Case values are normalized to string
// or int64.
func (c *Catalog) Add(types ...*Type) error {
	for _, t := range types {
		if err := validate(t); err != nil {
			return err
		}

		key := Key(t.Name)
		if _, ok := c.types[key]; ok {
			return errors.Wrapf(ErrDuplicateType, "%s", t.Name)
		}

		id := ID(t.Name)
		if other, ok := c.ids[id]; ok {
			return errors.WithHint(
				errors.Wrapf(ErrDuplicateType, "%s: id %q already used by %s", t.Name, id, other),
				"namespace separators \\, / and :: are equivalent in definition ids",
			)
		}

		c.types[key] = t
		c.ids[id] = key
		c.order = append(c.order, key)
	}
	return nil
}

// MustAdd is like Add but panics on error.
func (c *Catalog) MustAdd(types ...*Type) *Catalog {
	if err := c.Add(types...); err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the type registered under name. Unknown names yield an
// error matching ErrUnknownType.
func (c *Catalog) Lookup(name string) (*Type, error) {
	if t, ok := c.types[Key(name)]; ok {
		return t, nil
	}
	return nil, errors.Wrapf(ErrUnknownType, "%s", name)
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.types[Key(name)]
	return ok
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	return len(c.types)
}

// Names returns the registered names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// SortedNames returns the registered names sorted lexicographically.
func (c *Catalog) SortedNames() []string {
	out := c.Names()
	sort.Strings(out)
	return out
}

// Merge adds every type of other to c.
func (c *Catalog) Merge(other *Catalog) error {
	for _, key := range other.order {
		if err := c.Add(other.types[key]); err != nil {
			return err
		}
	}
	return nil
}

func validate(t *Type) error {
	if t == nil {
		return errors.Wrap(ErrInvalidType, "nil type")
	}
	if Key(t.Name) == "" {
		return errors.Wrap(ErrInvalidType, "empty type name")
	}
	if !t.Kind.Valid() {
		return errors.WithHint(
			errors.Wrapf(ErrInvalidType, "%s: unknown kind %q", t.Name, t.Kind),
			"kind must be one of object, enum, datetime, stringable",
		)
	}

	switch t.Role {
	case "", RoleModel, RoleRequest:
	default:
		return errors.Wrapf(ErrInvalidType, "%s: unknown role %q", t.Name, t.Role)
	}

	for i, m := range t.Members {
		if m.Name == "" {
			return errors.Wrapf(ErrInvalidType, "%s: member %d has no name", t.Name, i)
		}
	}

	for i := range t.Cases {
		v, ok := normalizeValue(t.Cases[i].Value)
		if !ok {
			return errors.Wrapf(ErrInvalidType, "%s: case %q has unsupported value %v", t.Name, t.Cases[i].Name, t.Cases[i].Value)
		}
		t.Cases[i].Value = v
	}

	for i, e := range t.Shape {
		if e.Key == "" {
			return errors.Wrapf(ErrInvalidType, "%s: shape entry %d has no key", t.Name, i)
		}
	}

	return nil
}
