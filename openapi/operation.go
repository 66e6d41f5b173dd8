package openapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
)

const defaultResponseKey = "default"

type parameterMeta struct {
	param *Parameter
	expr  string
}

// operationMeta stores metadata collected via the fluent builder
// before the final spec is built.
type operationMeta struct {
	operationID  string
	summary      string
	description  string
	tags         []string
	deprecated   bool
	hidden       bool
	parameters   []parameterMeta
	security     []SecurityRequirement
	externalDocs *ExternalDocs

	request            string
	requestDescription string
	requestRequired    *bool

	responses map[string]ResponseSpec
}

// OperationBuilder provides a fluent API for describing one endpoint. Type
// expressions are resolved when the Spec is built.
//
// See: https://spec.openapis.org/oas/v3.0.3#operation-object
type OperationBuilder struct {
	meta *operationMeta
}

func newOperationBuilder() *OperationBuilder {
	return &OperationBuilder{
		meta: &operationMeta{
			responses: make(map[string]ResponseSpec),
		},
	}
}

// OperationID sets the operation ID.
func (b *OperationBuilder) OperationID(id string) *OperationBuilder {
	b.meta.operationID = id
	return b
}

// Summary sets the operation summary.
func (b *OperationBuilder) Summary(s string) *OperationBuilder {
	b.meta.summary = s
	return b
}

// Description sets the operation description.
func (b *OperationBuilder) Description(d string) *OperationBuilder {
	b.meta.description = d
	return b
}

// Tags adds one or more tags to the operation.
func (b *OperationBuilder) Tags(tags ...string) *OperationBuilder {
	b.meta.tags = append(b.meta.tags, tags...)
	return b
}

// Deprecated marks the operation as deprecated.
func (b *OperationBuilder) Deprecated() *OperationBuilder {
	b.meta.deprecated = true
	return b
}

// Hidden excludes the operation from the document.
func (b *OperationBuilder) Hidden() *OperationBuilder {
	b.meta.hidden = true
	return b
}

// Parameter adds a parameter to the operation. Its schema is used as is.
//
// See: https://spec.openapis.org/oas/v3.0.3#parameter-object
func (b *OperationBuilder) Parameter(param *Parameter) *OperationBuilder {
	b.meta.parameters = append(b.meta.parameters, parameterMeta{param: param})
	return b
}

// TypedParameter adds a parameter whose schema is resolved from a type
// expression.
func (b *OperationBuilder) TypedParameter(param *Parameter, expr string) *OperationBuilder {
	b.meta.parameters = append(b.meta.parameters, parameterMeta{param: param, expr: expr})
	return b
}

// Request sets the type expression of the application/json request body.
//
// See: https://spec.openapis.org/oas/v3.0.3#request-body-object
func (b *OperationBuilder) Request(model string) *OperationBuilder {
	b.meta.request = model
	return b
}

// RequestDescription sets the description for the request body.
func (b *OperationBuilder) RequestDescription(desc string) *OperationBuilder {
	b.meta.requestDescription = desc
	return b
}

// RequestRequired sets whether the request body is required.
// By default, request bodies are required (true).
func (b *OperationBuilder) RequestRequired(required bool) *OperationBuilder {
	b.meta.requestRequired = &required
	return b
}

// Response registers the response for the given HTTP status code. Without a
// description, inline responses are described by the status text.
//
// See: https://spec.openapis.org/oas/v3.0.3#responses-object
func (b *OperationBuilder) Response(statusCode int, spec ResponseSpec) *OperationBuilder {
	b.meta.responses[strconv.Itoa(statusCode)] = spec
	return b
}

// DefaultResponse registers the response for the "default" status key.
func (b *OperationBuilder) DefaultResponse(spec ResponseSpec) *OperationBuilder {
	b.meta.responses[defaultResponseKey] = spec
	return b
}

// Security sets operation-level security requirements.
// Call with no arguments to explicitly mark the operation as unauthenticated
// (overrides document-level security).
//
// See: https://spec.openapis.org/oas/v3.0.3#security-requirement-object
func (b *OperationBuilder) Security(reqs ...SecurityRequirement) *OperationBuilder {
	if reqs == nil {
		reqs = []SecurityRequirement{}
	}
	b.meta.security = reqs
	return b
}

// ExternalDocs sets external documentation for the operation.
func (b *OperationBuilder) ExternalDocs(url, description string) *OperationBuilder {
	b.meta.externalDocs = &ExternalDocs{URL: url, Description: description}
	return b
}

// responseDescription returns a human-readable description for a response key.
func responseDescription(key string) string {
	if key == defaultResponseKey {
		return "Default response"
	}
	code, err := strconv.Atoi(key)
	if err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}

// buildOperation resolves the collected metadata into an Operation Object.
func (b *OperationBuilder) buildOperation(r *Resolver) (*Operation, error) {
	op := &Operation{
		OperationID:  b.meta.operationID,
		Summary:      b.meta.summary,
		Description:  b.meta.description,
		Tags:         b.meta.tags,
		Deprecated:   b.meta.deprecated,
		Security:     b.meta.security,
		ExternalDocs: b.meta.externalDocs,
		Responses:    make(map[string]*Response, len(b.meta.responses)),
	}

	for _, pm := range b.meta.parameters {
		param := *pm.param
		if pm.expr != "" {
			s, err := r.Resolve(pm.expr)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %s", param.Name)
			}
			param.Schema = s
		}
		op.Parameters = append(op.Parameters, &param)
	}

	if b.meta.request != "" || b.meta.requestDescription != "" || b.meta.requestRequired != nil {
		body, err := b.buildRequestBody(r)
		if err != nil {
			return nil, errors.Wrap(err, "request body")
		}
		op.RequestBody = body
	}

	keys := make([]string, 0, len(b.meta.responses))
	for key := range b.meta.responses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		resp, err := r.Response(b.meta.responses[key])
		if err != nil {
			return nil, errors.Wrapf(err, "response %s", key)
		}
		if !resp.IsRef() && resp.Description == "" {
			resp.Description = responseDescription(key)
		}
		op.Responses[key] = resp
	}

	if len(op.Responses) == 0 {
		op.Responses[defaultResponseKey] = &Response{Description: responseDescription(defaultResponseKey)}
	}

	return op, nil
}

func (b *OperationBuilder) buildRequestBody(r *Resolver) (*RequestBody, error) {
	required := true
	if b.meta.requestRequired != nil {
		required = *b.meta.requestRequired
	}

	body := &RequestBody{
		Description: b.meta.requestDescription,
		Required:    required,
		Content:     make(map[string]*MediaType, 1),
	}

	if b.meta.request == "" {
		return body, nil
	}

	s, err := r.element(b.meta.request)
	if err != nil {
		return nil, err
	}
	if s != nil {
		body.Content[contentTypeJSON] = &MediaType{Schema: s}
	}
	return body, nil
}
