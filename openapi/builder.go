package openapi

import (
	"github.com/vitalvas/typeschema/catalog"
)

// Tier orders shape builders during dispatch. Tiers are consulted in
// order and the first matching builder of the first matching tier wins.
type Tier int

const (
	// TierDirect builders return their result as is: date-times and
	// references to catalog models.
	TierDirect Tier = iota

	// TierReferenced builders produce a definition that is stored under the
	// type's SchemaID; callers receive a Reference to it.
	TierReferenced

	// TierPrimitive builders produce inline primitive schemas.
	TierPrimitive

	tierCount
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierReferenced:
		return "referenced"
	case TierPrimitive:
		return "primitive"
	}
	return "unknown"
}

// Candidate is a single type alternative offered to the builders.
type Candidate struct {
	// Name is the type name as written in the expression.
	Name string

	// Type is the catalog entry for Name, nil when the catalog does not
	// know the name (primitives, unknown identifiers).
	Type *catalog.Type

	// Nullable is set when the use site accepts null.
	Nullable bool
}

// Kind returns the catalog kind of the candidate, empty when unknown.
func (c Candidate) Kind() catalog.Kind {
	if c.Type == nil {
		return ""
	}
	return c.Type.Kind
}

// Builder turns a candidate into a schema. Match must be pure: it may only
// inspect the candidate. Build may return nil for "nothing to emit".
type Builder interface {
	Name() string
	Tier() Tier
	Match(c Candidate) bool
	Build(r *Resolver, c Candidate) (*Schema, error)
}

// Builders is the ordered set of shape builders used for dispatch.
type Builders struct {
	tiers [tierCount][]Builder
}

// DefaultBuilders returns the builtin builders in dispatch order.
func DefaultBuilders() *Builders {
	b := &Builders{}
	b.Register(
		dateTimeBuilder{},
		modelRefBuilder{},
		requestRefBuilder{},
		enumBuilder{},
		shapeBuilder{},
		numberBuilder{},
		integerBuilder{},
		booleanBuilder{},
		stringBuilder{},
		mixedBuilder{},
	)
	return b
}

// Register appends builders to their tiers. Within a tier, builders are
// consulted in registration order.
func (b *Builders) Register(builders ...Builder) {
	for _, builder := range builders {
		tier := builder.Tier()
		if tier < 0 || tier >= tierCount {
			tier = TierPrimitive
		}
		b.tiers[tier] = append(b.tiers[tier], builder)
	}
}

// Tier returns the builders of one tier.
func (b *Builders) Tier(t Tier) []Builder {
	if t < 0 || t >= tierCount {
		return nil
	}
	return b.tiers[t]
}

// Match returns the first builder accepting the candidate.
func (b *Builders) Match(c Candidate) (Builder, bool) {
	for _, tier := range b.tiers {
		for _, builder := range tier {
			if builder.Match(c) {
				return builder, true
			}
		}
	}
	return nil, false
}

// All returns every builder in dispatch order.
func (b *Builders) All() []Builder {
	var out []Builder
	for _, tier := range b.tiers {
		out = append(out, tier...)
	}
	return out
}

func (b *Builders) clone() *Builders {
	c := &Builders{}
	for i, tier := range b.tiers {
		c.tiers[i] = append([]Builder(nil), tier...)
	}
	return c
}
