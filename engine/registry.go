package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// Registry holds the engines of one application: DefaultName plus any extra
// named databases from connector.Settings.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// OpenAll opens an engine per configured database. If any fails, the ones
// already opened are closed and the error is returned.
func OpenAll(ctx context.Context, s *connector.Settings, opts ...Option) (*Registry, error) {
	r := NewRegistry()
	configs := map[string]connector.Config{DefaultName: s.Default}
	for _, name := range s.Names() {
		if name == DefaultName {
			return nil, fmt.Errorf("%w: database name %q is reserved", errs.ErrConfiguration, DefaultName)
		}
		configs[name] = s.Databases[name]
	}

	for _, name := range append([]string{DefaultName}, s.Names()...) {
		e, err := Open(ctx, configs[name], append(slices.Clone(opts), WithName(name))...)
		if err != nil {
			r.Close(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("database %s: %w", name, err)
		}
		r.Add(e)
	}
	return r, nil
}

// Add registers e under its name, replacing any engine of the same name.
func (r *Registry) Add(e *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

func (r *Registry) Get(name string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: no database named %q", errs.ErrConfiguration, name)
	}
	return e, nil
}

func (r *Registry) Default() (*Engine, error) { return r.Get(DefaultName) }

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every engine and empties the registry.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[string]*Engine)
	r.mu.Unlock()

	var errList []error
	for name, e := range engines {
		if err := e.Close(ctx); err != nil {
			errList = append(errList, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errList...)
}
