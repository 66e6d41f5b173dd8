package openapi

import (
	"go.uber.org/zap"

	"github.com/vitalvas/typeschema/catalog"
)

// DefaultFailureMarkers are the type names removed from documented
// serialization shapes: they describe failure paths, not output.
var DefaultFailureMarkers = []string{"Throwable", "Exception", "error"}

// TypeSource describes named types. *catalog.Catalog implements it.
// Lookup must return an error matching catalog.ErrUnknownType for names it
// does not know.
type TypeSource interface {
	Lookup(name string) (*catalog.Type, error)
}

// Engine is the immutable resolution configuration. It is safe to share
// between goroutines; each document build obtains its own Resolver.
type Engine struct {
	types    TypeSource
	builders *Builders
	logger   *zap.Logger
	markers  []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBuilder appends a custom builder to its tier, after the builtin
// builders of that tier.
func WithBuilder(b Builder) Option {
	return func(e *Engine) {
		e.builders.Register(b)
	}
}

// WithFailureMarkers replaces the type names dropped from serialization
// shapes.
func WithFailureMarkers(names ...string) Option {
	return func(e *Engine) {
		e.markers = append([]string(nil), names...)
	}
}

// NewEngine creates an engine resolving names through types. A nil source
// behaves as an empty catalog.
func NewEngine(types TypeSource, opts ...Option) *Engine {
	if types == nil {
		types = catalog.New()
	}

	e := &Engine{
		types:    types,
		builders: DefaultBuilders(),
		logger:   zap.NewNop(),
		markers:  append([]string(nil), DefaultFailureMarkers...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewResolver returns a resolver with a fresh registry.
func (e *Engine) NewResolver() *Resolver {
	return &Resolver{
		engine:   e,
		builders: e.builders.clone(),
		registry: NewRegistry(),
		logger:   e.logger,
	}
}

// Builders returns the engine's builders in dispatch order.
func (e *Engine) Builders() []Builder {
	return e.builders.All()
}

// FailureMarkers returns the configured failure marker names.
func (e *Engine) FailureMarkers() []string {
	return append([]string(nil), e.markers...)
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}
