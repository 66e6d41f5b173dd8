package openapi

import (
	"strings"

	"github.com/vitalvas/typeschema/catalog"
)

// dateTimeNames are builtin names serialized as RFC 3339 strings.
var dateTimeNames = map[string]bool{
	"DateTime":          true,
	"DateTimeImmutable": true,
	"DateTimeInterface": true,
	"Carbon":            true,
	"CarbonImmutable":   true,
	"time.Time":         true,
}

type dateTimeBuilder struct{}

func (dateTimeBuilder) Name() string { return "datetime" }
func (dateTimeBuilder) Tier() Tier   { return TierDirect }

func (dateTimeBuilder) Match(c Candidate) bool {
	return c.Kind() == catalog.KindDateTime || dateTimeNames[catalog.Key(c.Name)]
}

func (dateTimeBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	return &Schema{Type: "string", Format: "date-time", Nullable: c.Nullable}, nil
}

// modelRefBuilder references persisted models, building their definition
// on first use.
type modelRefBuilder struct{}

func (modelRefBuilder) Name() string { return "model" }
func (modelRefBuilder) Tier() Tier   { return TierDirect }

func (modelRefBuilder) Match(c Candidate) bool {
	return c.Type.IsObject() && !c.Type.HasShape() && c.Type.EffectiveRole() == catalog.RoleModel
}

func (modelRefBuilder) Build(r *Resolver, c Candidate) (*Schema, error) {
	return r.Reference(c.Name, c.Nullable)
}

// requestRefBuilder references request payload models.
type requestRefBuilder struct{}

func (requestRefBuilder) Name() string { return "request-model" }
func (requestRefBuilder) Tier() Tier   { return TierDirect }

func (requestRefBuilder) Match(c Candidate) bool {
	return c.Type.IsObject() && !c.Type.HasShape() && c.Type.EffectiveRole() == catalog.RoleRequest
}

func (requestRefBuilder) Build(r *Resolver, c Candidate) (*Schema, error) {
	return r.Reference(c.Name, c.Nullable)
}

var numberFormats = map[string]string{
	"float":   "float",
	"float32": "float",
	"float64": "double",
	"double":  "double",
	"number":  "",
}

type numberBuilder struct{}

func (numberBuilder) Name() string { return "number" }
func (numberBuilder) Tier() Tier   { return TierPrimitive }

func (numberBuilder) Match(c Candidate) bool {
	_, ok := numberFormats[strings.ToLower(c.Name)]
	return ok
}

func (numberBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	return &Schema{Type: "number", Format: numberFormats[strings.ToLower(c.Name)], Nullable: c.Nullable}, nil
}

var integerFormats = map[string]string{
	"int":     "int32",
	"integer": "int32",
	"int32":   "int32",
	"int64":   "int64",
	"long":    "int64",
}

type integerBuilder struct{}

func (integerBuilder) Name() string { return "integer" }
func (integerBuilder) Tier() Tier   { return TierPrimitive }

func (integerBuilder) Match(c Candidate) bool {
	_, ok := integerFormats[strings.ToLower(c.Name)]
	return ok
}

func (integerBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	return &Schema{Type: "integer", Format: integerFormats[strings.ToLower(c.Name)], Nullable: c.Nullable}, nil
}

type booleanBuilder struct{}

func (booleanBuilder) Name() string { return "boolean" }
func (booleanBuilder) Tier() Tier   { return TierPrimitive }

func (booleanBuilder) Match(c Candidate) bool {
	switch strings.ToLower(c.Name) {
	case "bool", "boolean", "true", "false":
		return true
	}
	return false
}

func (booleanBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	return &Schema{Type: "boolean", Nullable: c.Nullable}, nil
}

// stringBuilder covers plain strings and types serialized through their
// string form.
type stringBuilder struct{}

func (stringBuilder) Name() string { return "string" }
func (stringBuilder) Tier() Tier   { return TierPrimitive }

func (stringBuilder) Match(c Candidate) bool {
	return strings.EqualFold(c.Name, "string") || c.Kind() == catalog.KindStringable
}

func (stringBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	s := &Schema{Type: "string", Nullable: c.Nullable}
	if c.Type != nil {
		s.Description = c.Type.Description
	}
	return s, nil
}

// mixedBuilder accepts any value.
type mixedBuilder struct{}

func (mixedBuilder) Name() string { return "mixed" }
func (mixedBuilder) Tier() Tier   { return TierPrimitive }

func (mixedBuilder) Match(c Candidate) bool {
	switch strings.ToLower(c.Name) {
	case "mixed", "any":
		return true
	}
	return false
}

func (mixedBuilder) Build(_ *Resolver, c Candidate) (*Schema, error) {
	return &Schema{Nullable: c.Nullable}, nil
}
