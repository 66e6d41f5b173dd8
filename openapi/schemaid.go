package openapi

import "github.com/vitalvas/typeschema/catalog"

const (
	schemaRefPrefix   = "#/components/schemas/"
	responseRefPrefix = "#/components/responses/"
	contentTypeJSON   = "application/json"
)

// SchemaID derives the component key of a type: namespace separators
// (\ / ::) become dots and leading separators are dropped, so
// `\App\Model\User` and `App\Model\User` share the id "App.Model.User".
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object
func SchemaID(name string) string {
	return catalog.ID(name)
}

// SchemaRef returns a Reference to the component schema of a type.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: schemaRefPrefix + SchemaID(name)}
}

// ResponseRef returns a Reference to the component response of a type.
func ResponseRef(name string) *Response {
	return &Response{Ref: responseRefPrefix + SchemaID(name)}
}
