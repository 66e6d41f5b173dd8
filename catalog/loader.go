package catalog

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for file extensions without a decoder.
var ErrUnsupportedFormat = errors.New("catalog: unsupported file format")

// File is the on-disk catalog format: type definitions plus optional
// document metadata and endpoints consumed by the typeschema command.
type File struct {
	Info      *FileInfo  `json:"info,omitempty" yaml:"info,omitempty" toml:"info,omitempty" jsonschema:"description=Document metadata"`
	Servers   []Server   `json:"servers,omitempty" yaml:"servers,omitempty" toml:"servers,omitempty"`
	Types     []*Type    `json:"types" yaml:"types" toml:"types" jsonschema:"description=Type definitions"`
	Endpoints []Endpoint `json:"endpoints,omitempty" yaml:"endpoints,omitempty" toml:"endpoints,omitempty"`
}

// FileInfo carries the document title and version.
type FileInfo struct {
	Title       string `json:"title" yaml:"title" toml:"title"`
	Version     string `json:"version" yaml:"version" toml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

type Server struct {
	URL         string `json:"url" yaml:"url" toml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Endpoint declares one operation of the generated document.
type Endpoint struct {
	Method             string              `json:"method" yaml:"method" toml:"method" jsonschema:"enum=GET,enum=POST,enum=PUT,enum=PATCH,enum=DELETE,enum=HEAD,enum=OPTIONS"`
	Path               string              `json:"path" yaml:"path" toml:"path"`
	Summary            string              `json:"summary,omitempty" yaml:"summary,omitempty" toml:"summary,omitempty"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	OperationID        string              `json:"operationId,omitempty" yaml:"operationId,omitempty" toml:"operationId,omitempty"`
	Tags               []string            `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	Deprecated         bool                `json:"deprecated,omitempty" yaml:"deprecated,omitempty" toml:"deprecated,omitempty"`
	Hidden             bool                `json:"hidden,omitempty" yaml:"hidden,omitempty" toml:"hidden,omitempty"`
	Parameters         []EndpointParameter `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Request            string              `json:"request,omitempty" yaml:"request,omitempty" toml:"request,omitempty"`
	RequestDescription string              `json:"requestDescription,omitempty" yaml:"requestDescription,omitempty" toml:"requestDescription,omitempty"`
	Responses          []EndpointResponse  `json:"responses,omitempty" yaml:"responses,omitempty" toml:"responses,omitempty"`
}

// EndpointParameter declares a query, header, cookie or path parameter.
type EndpointParameter struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	In          string `json:"in" yaml:"in" toml:"in" jsonschema:"enum=query,enum=header,enum=path,enum=cookie"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
}

// EndpointResponse declares one response. Model is a type expression or a
// builtin collection such as ArrayList or Paginated, whose element type is
// Generic.
type EndpointResponse struct {
	Code        string `json:"code" yaml:"code" toml:"code"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	Generic     string `json:"generic,omitempty" yaml:"generic,omitempty" toml:"generic,omitempty"`
}

// Catalog builds a catalog from the file's type definitions.
func (f *File) Catalog() (*Catalog, error) {
	c := New()
	if err := c.Add(f.Types...); err != nil {
		return nil, err
	}
	return c, nil
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%s", path)
}

// LoadFile reads a catalog file, choosing the decoder by extension.
func LoadFile(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}

	f, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, errors.Wrapf(err, "load catalog %s", path)
	}
	return f, nil
}

// Decode reads a catalog file in the given format and validates its types.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode json")
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	if _, err := f.Catalog(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Encode writes f in the given format.
func Encode(w io.Writer, f *File, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(f), "encode json")
	case FormatTOML:
		enc := toml.NewEncoder(w)
		return errors.Wrap(enc.Encode(f), "encode toml")
	}
	return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
}
