package openapi

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrUnknownBuiltin is returned for generic container names without a builder.
var ErrUnknownBuiltin = errors.New("openapi: unknown builtin container")

// IntrospectionError reports that the type catalog could not describe a
// type the resolver needed. It aborts the document build.
type IntrospectionError struct {
	Type string
	Err  error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("openapi: introspect %s: %v", e.Type, e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}
