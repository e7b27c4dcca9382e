package graph

import (
	"fmt"
	"sort"

	"github.com/zero-day-ai/gridsync"
)

// Schema is the set of Resolvers the Store resolves references with, keyed by
// relationship name.
type Schema struct {
	resolvers map[string]*Resolver
}

// DefaultSchema returns the built-in relationship table.
func DefaultSchema() *Schema {
	s := &Schema{resolvers: make(map[string]*Resolver)}
	for _, r := range defaultResolvers() {
		s.resolvers[r.name] = r
	}
	return s
}

// Resolver looks up a relationship by name.
func (s *Schema) Resolver(name string) (*Resolver, bool) {
	r, ok := s.resolvers[name]
	return r, ok
}

// Names returns every relationship name, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.resolvers))
	for name := range s.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainerEdges returns the names of relationships currently marked as container edges.
func (s *Schema) ContainerEdges() []string {
	var names []string
	for _, name := range s.Names() {
		if s.resolvers[name].containerEdge {
			names = append(names, name)
		}
	}
	return names
}

// WithContainerEdges returns a copy of the schema with the container-edge flag
// overridden for the named relationships. Unknown names are a configuration error.
func (s *Schema) WithContainerEdges(overrides map[string]bool) (*Schema, error) {
	clone := &Schema{resolvers: make(map[string]*Resolver, len(s.resolvers))}
	for name, r := range s.resolvers {
		clone.resolvers[name] = r
	}
	for name, edge := range overrides {
		r, ok := clone.resolvers[name]
		if !ok {
			return nil, gridsync.NewConfigurationError("Schema.WithContainerEdges",
				fmt.Errorf("%w: unknown relationship %q", gridsync.ErrInvalidConfig, name))
		}
		clone.resolvers[name] = r.withContainerEdge(edge)
	}
	return clone, nil
}
