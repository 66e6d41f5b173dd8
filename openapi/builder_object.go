package openapi

import (
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/vitalvas/typeschema/catalog"
)

// objectBuilder describes a catalog object from its members, in
// declaration order. Hidden members and members without a schema are
// left out.
type objectBuilder struct{}

func (objectBuilder) Name() string { return "object" }
func (objectBuilder) Tier() Tier   { return TierReferenced }

func (objectBuilder) Match(c Candidate) bool {
	return c.Type.IsObject()
}

func (objectBuilder) Build(r *Resolver, c Candidate) (*Schema, error) {
	s := &Schema{Type: "object", Nullable: c.Nullable}
	if c.Type == nil {
		return s, nil
	}

	s.Description = c.Type.Description
	s.Deprecated = c.Type.Deprecated

	for _, m := range c.Type.Members {
		if m.Hidden {
			continue
		}

		prop, err := r.member(c.Type, m)
		if err != nil {
			return nil, err
		}
		if prop == nil {
			r.logger.Debug("member has no schema, omitting",
				zap.String("type", c.Type.Name),
				zap.String("member", m.Name),
				zap.String("expr", m.Type),
			)
			continue
		}

		s.SetProperty(m.ExposedName(), prop)
	}

	return s, nil
}

// member resolves one member. An override replaces the resolution; tag
// constraints and the member description apply to inline schemas only.
func (r *Resolver) member(owner *catalog.Type, m catalog.Member) (*Schema, error) {
	if m.Override != nil {
		s, err := schemaFromMap(m.Override)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s: override", owner.Name, m.Name)
		}
		return s, nil
	}

	s, err := r.Resolve(m.Type)
	if err != nil || s == nil {
		return s, err
	}

	if !s.IsRef() {
		if m.Description != "" {
			s.Description = m.Description
		}
		applyOpenAPITag(s, m.Tag)
	}
	return s, nil
}

// schemaFromMap converts a literal schema object into a Schema.
func schemaFromMap(raw map[string]any) (*Schema, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	s := &Schema{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
