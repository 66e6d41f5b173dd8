package openapi

import (
	"github.com/vitalvas/typeschema/catalog"
)

// enumBuilder describes backed enumerations. The first case decides the
// schema type; definitions are never nullable, use sites wrap them.
type enumBuilder struct{}

func (enumBuilder) Name() string { return "enum" }
func (enumBuilder) Tier() Tier   { return TierReferenced }

func (enumBuilder) Match(c Candidate) bool {
	return c.Kind() == catalog.KindEnum
}

func (enumBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	s := &Schema{Type: "string"}
	if c.Type == nil {
		return s, nil
	}

	s.Description = c.Type.Description
	s.Deprecated = c.Type.Deprecated

	if len(c.Type.Cases) == 0 {
		return s, nil
	}

	if _, ok := c.Type.Cases[0].Value.(string); !ok {
		s.Type = "integer"
	}

	s.Enum = make([]any, len(c.Type.Cases))
	for i, cs := range c.Type.Cases {
		s.Enum[i] = cs.Value
	}
	return s, nil
}
