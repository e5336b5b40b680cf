package mappings

// Mapping versions stamped into _meta.mapping_version.
// Bump major for breaking changes, minor for additions.
const (
	ContentMappingVersion  = "1.2.0"
	ArticleMappingVersion  = "1.1.0"
	ProductMappingVersion  = "1.0.0"
	DeclaredMappingVersion = "1.0.0"
)
