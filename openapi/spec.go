package openapi

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// macroTypeMap maps route macros to OpenAPI type and format.
var macroTypeMap = map[string][2]string{
	"uuid":     {"string", "uuid"},
	"int":      {"integer", ""},
	"float":    {"number", ""},
	"slug":     {"string", ""},
	"alpha":    {"string", ""},
	"alphanum": {"string", ""},
	"date":     {"string", "date"},
	"hex":      {"string", ""},
	"domain":   {"string", "hostname"},
}

// pathVarRegexp matches route variables in the form {name}, {name:macro}
// or $name.
var pathVarRegexp = regexp.MustCompile(`\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// methodOrder is the order in which operations of one path are built.
var methodOrder = map[string]int{
	http.MethodGet:     0,
	http.MethodPut:     1,
	http.MethodPost:    2,
	http.MethodDelete:  3,
	http.MethodOptions: 4,
	http.MethodHead:    5,
	http.MethodPatch:   6,
	http.MethodTrace:   7,
}

type endpoint struct {
	method string
	path   string
	op     *OperationBuilder
}

// Spec collects API metadata and endpoints and builds a complete Document.
type Spec struct {
	info             Info
	servers          []Server
	endpoints        []*endpoint
	pathSummaries    map[string]string
	pathDescriptions map[string]string
	externalDocs     *ExternalDocs
	security         []SecurityRequirement
	tags             []Tag
	securitySchemes  map[string]*SecurityScheme
	schemas          []string
}

// NewSpec creates a new spec builder with the given API info.
func NewSpec(info Info) *Spec {
	return &Spec{info: info}
}

// AddServer adds a server to the spec.
func (s *Spec) AddServer(server Server) *Spec {
	s.servers = append(s.servers, server)
	return s
}

// SetPathSummary sets a brief summary for a specific path. The path must use
// OpenAPI format (e.g., "/users/{id}").
func (s *Spec) SetPathSummary(path, summary string) *Spec {
	if s.pathSummaries == nil {
		s.pathSummaries = make(map[string]string)
	}
	s.pathSummaries[path] = summary
	return s
}

// SetPathDescription sets a detailed description for a specific path. The
// path must use OpenAPI format (e.g., "/users/{id}").
func (s *Spec) SetPathDescription(path, description string) *Spec {
	if s.pathDescriptions == nil {
		s.pathDescriptions = make(map[string]string)
	}
	s.pathDescriptions[path] = description
	return s
}

// SetExternalDocs sets the document-level external documentation link.
func (s *Spec) SetExternalDocs(url, description string) *Spec {
	s.externalDocs = &ExternalDocs{URL: url, Description: description}
	return s
}

// SetSecurity sets the document-level security requirements.
func (s *Spec) SetSecurity(reqs ...SecurityRequirement) *Spec {
	s.security = reqs
	return s
}

// AddTag adds a user-defined tag with optional description and external docs.
func (s *Spec) AddTag(tag Tag) *Spec {
	s.tags = append(s.tags, tag)
	return s
}

// AddSecurityScheme registers a reusable security scheme in components.
func (s *Spec) AddSecurityScheme(name string, scheme *SecurityScheme) *Spec {
	if s.securitySchemes == nil {
		s.securitySchemes = make(map[string]*SecurityScheme)
	}
	s.securitySchemes[name] = scheme
	return s
}

// AddSchemas registers catalog types that are emitted as components even
// when no operation references them.
func (s *Spec) AddSchemas(names ...string) *Spec {
	s.schemas = append(s.schemas, names...)
	return s
}

// Endpoint returns the OperationBuilder for method and path. Calling it
// again with the same method and path returns the same builder.
func (s *Spec) Endpoint(method, path string) *OperationBuilder {
	method = strings.ToUpper(method)
	for _, e := range s.endpoints {
		if e.method == method && e.path == path {
			return e.op
		}
	}

	b := newOperationBuilder()
	s.endpoints = append(s.endpoints, &endpoint{method: method, path: path, op: b})
	return b
}

// Build resolves every endpoint with a fresh resolver of engine and
// assembles the Document. Schemas and responses referenced by operations
// are emitted as components sorted by id. A nil engine resolves against an
// empty catalog.
func (s *Spec) Build(engine *Engine) (*Document, error) {
	if engine == nil {
		engine = NewEngine(nil)
	}
	r := engine.NewResolver()

	doc := &Document{
		OpenAPI:      Version,
		Info:         s.info,
		Servers:      s.servers,
		Paths:        make(map[string]*PathItem),
		ExternalDocs: s.externalDocs,
		Security:     s.security,
	}

	for _, e := range s.sortedEndpoints() {
		if e.op.meta.hidden {
			r.logger.Debug("skipping hidden endpoint",
				zap.String("method", e.method),
				zap.String("path", e.path),
			)
			continue
		}

		if _, ok := methodOrder[e.method]; !ok {
			return nil, errors.Newf("openapi: %s %s: unsupported method", e.method, e.path)
		}

		openAPIPath, pathParams := parsePath(e.path)

		op, err := e.op.buildOperation(r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s", e.method, e.path)
		}

		pathItem, ok := doc.Paths[openAPIPath]
		if !ok {
			pathItem = &PathItem{Parameters: pathParams}
			doc.Paths[openAPIPath] = pathItem
		}
		assignOperation(pathItem, e.method, op)
	}

	for _, name := range s.schemas {
		if _, err := r.Reference(name, false); err != nil {
			return nil, errors.Wrapf(err, "schema %s", name)
		}
	}

	for path, summary := range s.pathSummaries {
		if pathItem, ok := doc.Paths[path]; ok {
			pathItem.Summary = summary
		}
	}
	for path, description := range s.pathDescriptions {
		if pathItem, ok := doc.Paths[path]; ok {
			pathItem.Description = description
		}
	}

	doc.Components = s.buildComponents(r.Snapshot())
	doc.Tags = s.mergeTags(doc.Paths)

	schemas, responses := r.registry.Len()
	r.logger.Debug("document built",
		zap.Int("paths", len(doc.Paths)),
		zap.Int("schemas", schemas),
		zap.Int("responses", responses),
	)

	return doc, nil
}

// sortedEndpoints orders endpoints by path, then by method.
func (s *Spec) sortedEndpoints() []*endpoint {
	out := append([]*endpoint(nil), s.endpoints...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].path != out[j].path {
			return out[i].path < out[j].path
		}
		return methodOrder[out[i].method] < methodOrder[out[j].method]
	})
	return out
}

// buildComponents assembles the Components object from the resolver
// snapshot and the registered security schemes.
func (s *Spec) buildComponents(snap Snapshot) *Components {
	if snap.Schemas.Len() == 0 && snap.Responses.Len() == 0 && len(s.securitySchemes) == 0 {
		return nil
	}

	comp := &Components{}
	if snap.Schemas.Len() > 0 {
		comp.Schemas = snap.Schemas
	}
	if snap.Responses.Len() > 0 {
		comp.Responses = snap.Responses
	}
	if len(s.securitySchemes) > 0 {
		comp.SecuritySchemes = s.securitySchemes
	}
	return comp
}

// mergeTags combines auto-collected tags from operations with user-defined tags.
// User-defined tags take precedence (their description and externalDocs are kept).
// Tags not seen in operations but defined by the user are still included.
// The result is sorted alphabetically.
func (s *Spec) mergeTags(paths map[string]*PathItem) []Tag {
	userTags := make(map[string]Tag, len(s.tags))
	for _, tag := range s.tags {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []Tag

	for _, pathItem := range paths {
		for _, op := range pathItem.Operations() {
			for _, tagName := range op.Tags {
				if seen[tagName] {
					continue
				}
				seen[tagName] = true
				if userTag, ok := userTags[tagName]; ok {
					tags = append(tags, userTag)
				} else {
					tags = append(tags, Tag{Name: tagName})
				}
			}
		}
	}

	for _, tag := range s.tags {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}

// assignOperation assigns an operation to the correct HTTP method field
// on the path item.
func assignOperation(pathItem *PathItem, method string, op *Operation) {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	case http.MethodTrace:
		pathItem.Trace = op
	}
}

// parsePath extracts variables from a route template, converts it to
// OpenAPI format, and generates required path parameters.
func parsePath(tpl string) (string, []*Parameter) {
	var params []*Parameter

	openAPIPath := pathVarRegexp.ReplaceAllStringFunc(tpl, func(match string) string {
		var varName, macroName string
		if strings.HasPrefix(match, "$") {
			varName = match[1:]
		} else {
			varName, macroName, _ = strings.Cut(match[1:len(match)-1], ":")
		}

		param := &Parameter{
			Name:     varName,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: "string"},
		}

		if typeInfo, ok := macroTypeMap[macroName]; ok {
			param.Schema = &Schema{Type: typeInfo[0], Format: typeInfo[1]}
		}

		params = append(params, param)
		return "{" + varName + "}"
	})

	return openAPIPath, params
}
