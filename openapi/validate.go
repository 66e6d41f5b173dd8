package openapi

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
)

// ErrInvalidDocument is returned when a generated document does not pass
// OpenAPI validation.
var ErrInvalidDocument = errors.New("openapi: invalid document")

// Validate checks the document against the OpenAPI 3.0 rules: it is loaded
// back from its JSON form and every reference must resolve. Patterns are
// not compiled: placeholder schemas carry type names there.
func (d *Document) Validate(ctx context.Context) error {
	data, err := d.JSON()
	if err != nil {
		return err
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "load document"), ErrInvalidDocument)
	}

	opts := []openapi3.ValidationOption{
		openapi3.DisableExamplesValidation(),
		openapi3.DisableSchemaPatternValidation(),
	}
	if err := spec.Validate(ctx, opts...); err != nil {
		return errors.Mark(errors.Wrap(err, "validate document"), ErrInvalidDocument)
	}
	return nil
}
