package mappings

import "github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"

// TypeResolver decides which mapping applies to a logical index. It performs no I/O.
type TypeResolver struct {
	registry *Registry
}

// NewTypeResolver returns a resolver backed by registry.
func NewTypeResolver(registry *Registry) *TypeResolver {
	return &TypeResolver{registry: registry}
}

// Resolve applies the rules in order:
//
//   - the default index, or the only configured index, gets the content mapping
//   - a blank declared type is unresolved
//   - a registered declared type is custom
//
// An unregistered type yields an unresolved result together with a
// *domain.TypeLoadError for the caller to log. The result is always usable.
func (r *TypeResolver) Resolve(cfg domain.IndexConfig, all []domain.IndexConfig) (domain.ResolvedType, error) {
	if cfg.IsDefault || len(all) == 1 {
		return domain.ResolvedType{
			Kind:    domain.MappingDefaultContent,
			Name:    DefaultContentTypeName,
			Mapping: ContentMapping(),
		}, nil
	}

	if !cfg.HasDeclaredType() {
		return domain.ResolvedType{Kind: domain.MappingUnresolved}, nil
	}

	schema, err := r.registry.Lookup(cfg.Type)
	if err != nil {
		return domain.ResolvedType{Kind: domain.MappingUnresolved, Name: cfg.Type}, err
	}
	return domain.ResolvedType{
		Kind:    domain.MappingCustomDeclared,
		Name:    schema.Name,
		Mapping: schema.Mapping(),
	}, nil
}
