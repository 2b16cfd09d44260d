package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Registry manages the graphs available to the serving surfaces, keyed by
// name. Long-running processes (HTTP, MCP) resolve executors here per
// request.
type Registry struct {
	mu     sync.RWMutex
	graphs map[string]ports.GraphExecutor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		graphs: make(map[string]ports.GraphExecutor),
	}
}

// Register adds a graph executor under name.
// If a graph with the same name exists, it is overwritten.
func (r *Registry) Register(name string, executor ports.GraphExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[name] = executor
}

// Resolve looks up a graph executor by name.
func (r *Registry) Resolve(name string) (ports.GraphExecutor, error) {
	r.mu.RLock()
	executor, ok := r.graphs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
	}
	return executor, nil
}

// Names returns the registered graph names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
