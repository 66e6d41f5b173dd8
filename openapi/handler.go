package openapi

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DocsUI selects which interactive documentation UI to serve.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

// HandleConfig configures the endpoints registered by Handle.
type HandleConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: spec info.title).
	Title string

	// JSONFilename is the path for the JSON document endpoint
	// (default: "schema.json"). Set to "-" to disable.
	//
	// Relative paths are joined with the base path:
	//
	//	"schema.json"       -> <basePath>/schema.json
	//	"data/openapi.json" -> <basePath>/data/openapi.json
	//
	// Absolute paths (starting with "/") are used as-is.
	JSONFilename string

	// YAMLFilename is the path for the YAML document endpoint
	// (default: "schema.yaml"). Set to "-" to disable.
	YAMLFilename string

	// DisableDocs disables the interactive HTML docs UI endpoint.
	DisableDocs bool

	// CacheControl is the Cache-Control value of the document endpoints,
	// e.g. "public, max-age=300". Empty sets no header.
	CacheControl string

	// SwaggerUIConfig provides additional SwaggerUIBundle options, rendered
	// as object properties next to url and dom_id.
	//
	// See: https://swagger.io/docs/open-source-tools/swagger-ui/usage/configuration/
	SwaggerUIConfig map[string]any
}

func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "schema.json"
	}
	return cfg.JSONFilename
}

func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "schema.yaml"
	}
	return cfg.YAMLFilename
}

// resolvePath returns the full route path for a filename.
// Absolute filenames (starting with "/") are returned as-is.
// Relative filenames are joined under basePath.
func resolvePath(basePath, filename string) string {
	if strings.HasPrefix(filename, "/") {
		return filename
	}
	if basePath == "" {
		return "/" + filename
	}
	return basePath + "/" + filename
}

// documentCache builds the document on first use and keeps the encoded
// forms for every later request.
type documentCache struct {
	spec   *Spec
	engine *Engine

	once    sync.Once
	jsonDoc *encodedDocument
	yamlDoc *encodedDocument
	err     error
}

func (c *documentCache) load() error {
	c.once.Do(func() {
		c.err = c.build()
	})
	if c.err != nil {
		c.engine.logger.Error("failed to build OpenAPI document", zap.Error(c.err))
	}
	return c.err
}

func (c *documentCache) build() error {
	doc, err := c.spec.Build(c.engine)
	if err != nil {
		return err
	}

	data, err := doc.JSON()
	if err != nil {
		return err
	}
	if c.jsonDoc, err = newEncodedDocument("application/json", data); err != nil {
		return err
	}

	if data, err = doc.YAML(); err != nil {
		return err
	}
	c.yamlDoc, err = newEncodedDocument("application/x-yaml", data)
	return err
}

// Handler returns an http.Handler serving the document and docs UI under
// basePath. See Handle.
func (s *Spec) Handler(engine *Engine, basePath string, cfg *HandleConfig) http.Handler {
	mux := http.NewServeMux()
	s.Handle(mux, engine, basePath, cfg)
	return mux
}

// Handle registers the document endpoints under basePath on mux. The base
// path is normalized (trailing slash stripped). Documents are served with an
// ETag and gzip-compressed when the client accepts it. Depending on config, the
// following routes are registered:
//
//	<basePath>/            - interactive HTML docs (unless DisableDocs)
//	<JSONFilename path>    - document as JSON  (unless JSONFilename is "-")
//	<YAMLFilename path>    - document as YAML  (unless YAMLFilename is "-")
//
// The config parameter is optional; pass nil for defaults. The document is
// built with engine once, on first request, and cached.
func (s *Spec) Handle(mux *http.ServeMux, engine *Engine, basePath string, cfg *HandleConfig) {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	if engine == nil {
		engine = NewEngine(nil)
	}
	basePath = strings.TrimRight(basePath, "/")
	cache := &documentCache{spec: s, engine: engine}

	var jsonPath, yamlPath string

	if name := cfg.jsonFilename(); name != "-" {
		jsonPath = resolvePath(basePath, name)
		mux.HandleFunc("GET "+jsonPath, func(w http.ResponseWriter, r *http.Request) {
			if err := cache.load(); err != nil {
				http.Error(w, "failed to build OpenAPI document", http.StatusInternalServerError)
				return
			}
			cache.jsonDoc.serve(w, r, cfg.CacheControl)
		})
	}

	if name := cfg.yamlFilename(); name != "-" {
		yamlPath = resolvePath(basePath, name)
		mux.HandleFunc("GET "+yamlPath, func(w http.ResponseWriter, r *http.Request) {
			if err := cache.load(); err != nil {
				http.Error(w, "failed to build OpenAPI document", http.StatusInternalServerError)
				return
			}
			cache.yamlDoc.serve(w, r, cfg.CacheControl)
		})
	}

	if cfg.DisableDocs {
		return
	}

	specURL := jsonPath
	if specURL == "" {
		specURL = yamlPath
	}
	if specURL == "" {
		return
	}

	title := cfg.Title
	if title == "" {
		title = s.info.Title
	}

	page, err := renderDocs(cfg, title, specURL)
	if err != nil {
		engine.logger.Error("failed to render docs page", zap.Error(err))
		return
	}

	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	}

	if basePath == "" {
		mux.HandleFunc("GET /{$}", handler)
		return
	}
	mux.HandleFunc("GET "+basePath, handler)
	mux.HandleFunc("GET "+basePath+"/{$}", handler)
}

var docsTemplates = template.Must(template.New("docs").Parse(`
{{- define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
{{- end}}

{{- define "swagger"}}{{template "head" .}}
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({{.Options}});
</script>
</body>
</html>
{{- end}}

{{- define "rapidoc"}}{{template "head" .}}
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url="{{.SpecURL}}"></rapi-doc>
</body>
</html>
{{- end}}

{{- define "redoc"}}{{template "head" .}}
</head>
<body>
<redoc spec-url="{{.SpecURL}}"></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>
{{- end}}`))

type docsPage struct {
	Title   string
	SpecURL string
	Options map[string]any
}

func renderDocs(cfg *HandleConfig, title, specURL string) ([]byte, error) {
	page := docsPage{Title: title, SpecURL: specURL}

	name := "swagger"
	switch cfg.UI {
	case DocsRapiDoc:
		name = "rapidoc"
	case DocsRedoc:
		name = "redoc"
	default:
		page.Options = swaggerOptions(specURL, cfg.SwaggerUIConfig)
	}

	var buf bytes.Buffer
	if err := docsTemplates.ExecuteTemplate(&buf, name, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// swaggerOptions merges user options with url and dom_id. Options that
// cannot be encoded are dropped.
func swaggerOptions(specURL string, extra map[string]any) map[string]any {
	opts := map[string]any{
		"url":    specURL,
		"dom_id": "#swagger-ui",
	}

	for k, v := range extra {
		if _, ok := opts[k]; ok {
			continue
		}
		if _, err := json.Marshal(v); err != nil {
			continue
		}
		opts[k] = v
	}
	return opts
}
