package workloads

import (
	"fmt"
	"maps"
	"slices"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
	"github.com/edisonylee/turbocommerce-sub001/pkg/registry"
)

// Factory builds a workload over a data-fetch collaborator. Replay rebuilds
// workloads through their factory with a recorded fetcher.
type Factory func(f ports.Fetcher) ports.Workload

// Catalog maps workload names to factories.
type Catalog map[string]Factory

// Builtin returns the catalog of demo workloads.
func Builtin() Catalog {
	return Catalog{
		ProductPageName: NewProductPage,
		LandingName:     NewLanding,
	}
}

// Add registers a factory, replacing any previous one with the same name.
func (c Catalog) Add(name string, factory Factory) Catalog {
	c[name] = factory
	return c
}

// Names returns the catalogued workload names, sorted.
func (c Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// New builds the named workload over f.
func (c Catalog) New(name string, f ports.Fetcher) (ports.Workload, error) {
	factory, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkloadNotFound, name)
	}
	return factory(f), nil
}

// Registry builds every catalogued workload over f.
func (c Catalog) Registry(f ports.Fetcher) *registry.Registry {
	reg := registry.NewRegistry()
	for _, name := range c.Names() {
		reg.Register(c[name](f))
	}
	return reg
}
