package main

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/vitalvas/typeschema/catalog"
	"github.com/vitalvas/typeschema/openapi"
)

var errNoSources = errors.New("no type sources")

// project is the input of one generation run: every type of the configured
// sources plus the document metadata and endpoints of the catalog files.
type project struct {
	types *catalog.Catalog
	file  *catalog.File
}

// loadProject reads the catalog files and scans the Go directories. Type
// names must be unique across all sources.
func (a *app) loadProject() (*project, error) {
	if len(a.cfg.Catalogs) == 0 && len(a.cfg.Scan) == 0 {
		return nil, errors.WithHint(errNoSources, "pass --catalog or --scan, or list them in typeschema.yaml")
	}

	p := &project{
		types: catalog.New(),
		file:  &catalog.File{},
	}

	for _, path := range a.cfg.Catalogs {
		f, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}

		types, err := f.Catalog()
		if err != nil {
			return nil, errors.Wrapf(err, "catalog %s", path)
		}
		if err := p.types.Merge(types); err != nil {
			return nil, errors.Wrapf(err, "catalog %s", path)
		}

		if p.file.Info == nil {
			p.file.Info = f.Info
		}
		p.file.Servers = append(p.file.Servers, f.Servers...)
		p.file.Endpoints = append(p.file.Endpoints, f.Endpoints...)

		a.logger.Debug("catalog loaded",
			zap.String("path", path),
			zap.Int("types", types.Len()),
			zap.Int("endpoints", len(f.Endpoints)),
		)
	}

	for _, dir := range a.cfg.Scan {
		types, err := catalog.ScanDir(dir, a.cfg.Prefix)
		if err != nil {
			return nil, err
		}
		if err := p.types.Merge(types); err != nil {
			return nil, errors.Wrapf(err, "scan %s", dir)
		}

		a.logger.Debug("directory scanned",
			zap.String("dir", dir),
			zap.Int("types", types.Len()),
		)
	}

	return p, nil
}

func (a *app) engine(types *catalog.Catalog) *openapi.Engine {
	opts := []openapi.Option{openapi.WithLogger(a.logger)}
	if len(a.cfg.FailureMarkers) > 0 {
		opts = append(opts, openapi.WithFailureMarkers(a.cfg.FailureMarkers...))
	}
	return openapi.NewEngine(types, opts...)
}

// buildDocument runs one full generation with a fresh resolver.
func (a *app) buildDocument() (*openapi.Document, error) {
	p, err := a.loadProject()
	if err != nil {
		return nil, err
	}

	spec, err := openapi.SpecFromFile(p.file)
	if err != nil {
		return nil, err
	}
	if a.cfg.AllTypes {
		spec.AddSchemas(p.types.SortedNames()...)
	}

	return spec.Build(a.engine(p.types))
}
