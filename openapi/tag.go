package openapi

import (
	"strconv"
	"strings"
)

// applyOpenAPITag parses an `openapi` member tag and applies its constraints
// to the schema. The tag is a comma-separated list of key or key=value
// items; unknown keys and unparseable values are ignored.
//
// exclusiveMinimum=N and exclusiveMaximum=N set the bound together with the
// boolean flag used by OpenAPI 3.0.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
func applyOpenAPITag(schema *Schema, tag string) {
	if tag == "" {
		return
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if hasValue {
			value = strings.TrimSpace(value)
		}

		switch key {
		case "description":
			schema.Description = value
		case "title":
			schema.Title = value
		case "example":
			schema.Example = parseExampleValue(schema, value)
		case "default":
			schema.Default = parseExampleValue(schema, value)
		case "format":
			schema.Format = value
		case "pattern":
			schema.Pattern = value
		case "minimum":
			schema.Minimum = parseFloat(value)
		case "maximum":
			schema.Maximum = parseFloat(value)
		case "exclusiveMinimum":
			if v := parseFloat(value); v != nil {
				schema.Minimum = v
				schema.ExclusiveMinimum = true
			}
		case "exclusiveMaximum":
			if v := parseFloat(value); v != nil {
				schema.Maximum = v
				schema.ExclusiveMaximum = true
			}
		case "multipleOf":
			schema.MultipleOf = parseFloat(value)
		case "minLength":
			schema.MinLength = parseInt(value)
		case "maxLength":
			schema.MaxLength = parseInt(value)
		case "minItems":
			schema.MinItems = parseInt(value)
		case "maxItems":
			schema.MaxItems = parseInt(value)
		case "minProperties":
			schema.MinProperties = parseInt(value)
		case "maxProperties":
			schema.MaxProperties = parseInt(value)
		case "enum":
			values := strings.Split(value, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = parseExampleValue(schema, v)
			}
		case "uniqueItems":
			schema.UniqueItems = true
		case "deprecated":
			schema.Deprecated = true
		case "readOnly":
			schema.ReadOnly = true
		case "writeOnly":
			schema.WriteOnly = true
		case "nullable":
			schema.Nullable = true
		}
	}
}

// parseExampleValue converts a tag value to the Go type matching the
// schema type.
func parseExampleValue(schema *Schema, value string) any {
	switch schema.Type {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

func parseFloat(value string) *float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(value string) *int {
	v, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &v
}
