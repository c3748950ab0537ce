// Package registry holds per-kind connector parameter checkers.
//
// A Registry is built explicitly and passed to the code that needs it; there
// is no package-level instance. Registration is register-if-absent: a second
// registration of the same kind is ignored.
package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

// Checker validates the merged parameters of one connector kind
type Checker func(p *params.Table) error

// Registry manages checker registration and lookup
type Registry struct {
	sources map[string]Checker
	sinks   map[string]Checker
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Checker),
		sinks:   make(map[string]Checker),
		logger:  logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// WithLogger replaces the registry logger
func (r *Registry) WithLogger(l *zap.Logger) *Registry {
	r.logger = l
	return r
}

// RegisterSource registers a source checker. It returns false and keeps the
// existing checker when kind is already registered.
func (r *Registry) RegisterSource(kind string, c Checker) bool {
	return r.register(r.sources, "source", kind, c)
}

// RegisterSink registers a sink checker. It returns false and keeps the
// existing checker when kind is already registered.
func (r *Registry) RegisterSink(kind string, c Checker) bool {
	return r.register(r.sinks, "sink", kind, c)
}

func (r *Registry) register(m map[string]Checker, side, kind string, c Checker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := m[kind]; exists {
		r.logger.Debug("checker already registered, ignoring", zap.String("side", side), zap.String("kind", kind))
		return false
	}

	m[kind] = c
	r.logger.Debug("checker registered", zap.String("side", side), zap.String("kind", kind))
	return true
}

// CheckSink runs the sink checker for kind against p
func (r *Registry) CheckSink(kind string, p *params.Table) error {
	return r.check(r.sinks, "sink", kind, p)
}

// CheckSource runs the source checker for kind against p
func (r *Registry) CheckSource(kind string, p *params.Table) error {
	return r.check(r.sources, "source", kind, p)
}

func (r *Registry) check(m map[string]Checker, side, kind string, p *params.Table) error {
	r.mu.RLock()
	c, exists := m[kind]
	r.mu.RUnlock()

	if !exists {
		return errors.Newf(errors.ErrorTypeCapability, "no %s checker registered for kind '%s'", side, kind).
			WithDetail("kind", kind)
	}

	if p == nil {
		p = params.NewTable()
	}
	if err := c(p); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid "+kind+" "+side+" params").
			WithDetail("kind", kind)
	}
	return nil
}

// ListSources returns the registered source kinds, sorted
func (r *Registry) ListSources() []string {
	return r.list(r.sources)
}

// ListSinks returns the registered sink kinds, sorted
func (r *Registry) ListSinks() []string {
	return r.list(r.sinks)
}

func (r *Registry) list(m map[string]Checker) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// HasSource checks if a source kind is registered
func (r *Registry) HasSource(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sources[kind]
	return exists
}

// HasSink checks if a sink kind is registered
func (r *Registry) HasSink(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sinks[kind]
	return exists
}
