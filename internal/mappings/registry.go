// Package mappings owns the mapping schemas, the custom type registry, type
// resolution and the index settings bodies sent to the cluster.
package mappings

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

// Schema is a registered custom mapping type.
type Schema struct {
	Name       string
	Version    string
	Properties map[string]any
}

// Mapping renders the mappings body with its version stamp.
func (s Schema) Mapping() map[string]any {
	version := s.Version
	if version == "" {
		version = DeclaredMappingVersion
	}
	return withMeta(version, s.Name, maps.Clone(s.Properties))
}

// Registry maps type names to schemas. It is filled at configuration load
// and read-only afterwards.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry returns a registry holding the built-in types plus extra.
// A later schema with the same name replaces an earlier one.
func NewRegistry(extra ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]Schema)}
	for _, s := range append(Builtins(), extra...) {
		if strings.TrimSpace(s.Name) == "" {
			return nil, errors.New("mapping type without a name")
		}
		if len(s.Properties) == 0 {
			return nil, fmt.Errorf("mapping type %s has no properties", s.Name)
		}
		r.schemas[key(s.Name)] = s
	}
	return r, nil
}

// Lookup finds a schema by name, case-insensitively.
func (r *Registry) Lookup(name string) (Schema, error) {
	s, ok := r.schemas[key(name)]
	if !ok {
		return Schema{}, &domain.TypeLoadError{TypeName: strings.TrimSpace(name)}
	}
	return s, nil
}

// Names lists registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for _, s := range r.schemas {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
