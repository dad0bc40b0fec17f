package parser

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-scrape-tariffs/models"
)

// ErrUnregisteredJurisdiction signals a jurisdiction with no extractor.
var ErrUnregisteredJurisdiction = errors.New("parser: no extractor registered")

// Factory builds an extractor that reports diagnostics to logger.
type Factory func(logger *slog.Logger) Extractor

// Registry maps jurisdictions to extractor factories.
type Registry struct {
	factories map[models.Jurisdiction]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[models.Jurisdiction]Factory)}
}

// DefaultRegistry registers every supported jurisdiction.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(models.Canada, NewCanadian)
	r.Register(models.Mexico, NewStub(models.Mexico))
	r.Register(models.China, NewStub(models.China))
	return r
}

// Register binds f to j, replacing any earlier binding.
func (r *Registry) Register(j models.Jurisdiction, f Factory) {
	r.factories[j] = f
}

// Resolve returns the factory registered for j.
func (r *Registry) Resolve(j models.Jurisdiction) (Factory, error) {
	f, ok := r.factories[j]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w for %q", ErrUnregisteredJurisdiction, j)
	}
	return f, nil
}
