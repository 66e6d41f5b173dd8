package openapi

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/vitalvas/typeschema/catalog"
)

// SpecFromFile creates a spec from the metadata and endpoints of a catalog
// file. Response codes are numeric status codes or "default".
func SpecFromFile(f *catalog.File) (*Spec, error) {
	info := Info{Title: "API", Version: "0.0.0"}
	if f.Info != nil {
		info.Title = f.Info.Title
		info.Version = f.Info.Version
		info.Description = f.Info.Description
	}

	s := NewSpec(info)
	for _, srv := range f.Servers {
		s.AddServer(Server{URL: srv.URL, Description: srv.Description})
	}

	for _, e := range f.Endpoints {
		op := s.Endpoint(e.Method, e.Path).
			Summary(e.Summary).
			Description(e.Description).
			OperationID(e.OperationID).
			Tags(e.Tags...)

		if e.Deprecated {
			op.Deprecated()
		}
		if e.Hidden {
			op.Hidden()
		}

		for _, p := range e.Parameters {
			param := &Parameter{
				Name:        p.Name,
				In:          p.In,
				Description: p.Description,
				Required:    p.Required || p.In == "path",
			}
			expr := p.Type
			if expr == "" {
				expr = "string"
			}
			op.TypedParameter(param, expr)
		}

		if e.Request != "" {
			op.Request(e.Request)
		}
		if e.RequestDescription != "" {
			op.RequestDescription(e.RequestDescription)
		}

		for _, resp := range e.Responses {
			spec := ResponseSpec{
				Description: resp.Description,
				Model:       resp.Model,
				Generic:     resp.Generic,
			}

			if resp.Code == defaultResponseKey {
				op.DefaultResponse(spec)
				continue
			}

			code, err := strconv.Atoi(resp.Code)
			if err != nil || code < 100 || code > 599 {
				return nil, errors.Newf("openapi: %s %s: invalid response code %q", e.Method, e.Path, resp.Code)
			}
			op.Response(code, spec)
		}
	}

	return s, nil
}
