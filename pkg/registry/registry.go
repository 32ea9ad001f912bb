package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// Registry manages the available workloads.
type Registry struct {
	mu        sync.RWMutex
	workloads map[string]ports.Workload
}

// NewRegistry creates a registry holding the given workloads.
func NewRegistry(workloads ...ports.Workload) *Registry {
	r := &Registry{
		workloads: make(map[string]ports.Workload),
	}
	for _, w := range workloads {
		r.Register(w)
	}
	return r
}

// Register adds a workload under its name.
// If a workload with the same name exists, it is overwritten.
func (r *Registry) Register(w ports.Workload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workloads[w.Name()] = w
}

// Get looks up a workload by name.
// Returns domain.ErrWorkloadNotFound if it is not registered.
func (r *Registry) Get(name string) (ports.Workload, error) {
	r.mu.RLock()
	w, ok := r.workloads[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkloadNotFound, name)
	}
	return w, nil
}

// Names returns the registered workload names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.workloads))
	for name := range r.workloads {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
