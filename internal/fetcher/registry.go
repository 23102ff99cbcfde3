package fetcher

import (
	"sort"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
)

// Registry maps source names to source implementations. It is built
// explicitly by the caller; there is no package-level registry.
type Registry struct {
	sources map[string]source.Source
}

// NewRegistry creates a registry holding the given sources.
func NewRegistry(sources ...source.Source) *Registry {
	r := &Registry{sources: make(map[string]source.Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds a source, replacing any source with the same name.
func (r *Registry) Register(s source.Source) {
	r.sources[s.Name()] = s
}

// Lookup finds a source by name.
func (r *Registry) Lookup(name string) (source.Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
