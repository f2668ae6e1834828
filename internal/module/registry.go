package module

import (
	"context"
	"sync"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
)

// Definition describes a page module registered in code.
type Definition struct {
	Config Config
	// Dir anchors relative watch paths; may be empty.
	Dir    string
	Render RenderFunc
}

// Registry serves modules registered in code and defers the rest to a fallback.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]Definition
	fallback Loader
}

// NewRegistry returns an empty registry. fallback may be nil.
func NewRegistry(fallback Loader) *Registry {
	return &Registry{defs: make(map[string]Definition), fallback: fallback}
}

// Register adds or replaces the definition for name.
func (r *Registry) Register(name string, def Definition) error {
	if !ValidName(name) {
		return eerrors.ValidationFailed("module", "invalid module name "+name)
	}
	if def.Config == nil {
		return eerrors.InvalidPageModule(name, "config missing", nil)
	}
	if def.Render == nil {
		return eerrors.InvalidPageModule(name, "page missing", nil)
	}
	r.mu.Lock()
	r.defs[name] = Definition{Config: def.Config.Clone(), Dir: def.Dir, Render: def.Render}
	r.mu.Unlock()
	return nil
}

// Load returns the registered module or asks the fallback.
func (r *Registry) Load(ctx context.Context, name string) (*Module, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if ok {
		return New(name, def.Dir, def.Config, def.Render), nil
	}
	if r.fallback == nil {
		return nil, eerrors.ModuleNotFound(name, nil)
	}
	return r.fallback.Load(ctx, name)
}
