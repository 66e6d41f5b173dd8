package catalog

import (
	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

const fileSchemaID = "https://github.com/vitalvas/typeschema/catalog.schema.json"

// FileSchema returns the JSON Schema of the catalog file format, for
// editor completion and validation of catalog files.
func FileSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag: "yaml",
	}

	s := r.Reflect(&File{})
	s.ID = fileSchemaID
	s.Title = "typeschema catalog"
	s.Description = "Type definitions and endpoints for typeschema generate"

	return s
}

// FileSchemaJSON returns FileSchema encoded as indented JSON.
func FileSchemaJSON() ([]byte, error) {
	return json.MarshalIndent(FileSchema(), "", "  ")
}

// JSONSchema restricts kinds to the known values.
func (Kind) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{string(KindObject), string(KindEnum), string(KindDateTime), string(KindStringable)},
	}
}

// JSONSchema restricts roles to the known values.
func (Role) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{string(RoleModel), string(RoleRequest)},
	}
}
