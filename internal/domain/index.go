package domain

import "strings"

// IndexConfig is a logical index: one physical index per language, optionally
// with a commerce companion. Loaded from configuration and never mutated.
type IndexConfig struct {
	Name      string `json:"name"       yaml:"name"`
	IsDefault bool   `json:"is_default" yaml:"is_default"`
	// Type names a registered mapping type. Empty means the default content mapping
	// when this is the default or only index, otherwise unresolved.
	Type                string `json:"type,omitempty"        yaml:"type"`
	LanguageIndependent bool   `json:"language_independent" yaml:"language_independent"`
}

// HasDeclaredType reports whether Type is non-blank.
func (c IndexConfig) HasDeclaredType() bool {
	return strings.TrimSpace(c.Type) != ""
}

// Language is an enabled content language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// MappingKind classifies how a logical index is mapped.
type MappingKind int

const (
	// MappingUnresolved means no mapping could be determined; the index is
	// created without a schema and dynamic mapping is left alone.
	MappingUnresolved MappingKind = iota
	// MappingDefaultContent is the built-in content schema.
	MappingDefaultContent
	// MappingCustomDeclared is a registered custom type.
	MappingCustomDeclared
)

func (k MappingKind) String() string {
	switch k {
	case MappingDefaultContent:
		return "default"
	case MappingCustomDeclared:
		return "custom"
	default:
		return "unresolved"
	}
}

// MarshalText renders the kind by name in JSON bodies.
func (k MappingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ResolvedType is the outcome of type resolution for one logical index.
type ResolvedType struct {
	Kind MappingKind
	// Name is the registered type name, or the default content type name.
	Name string
	// Mapping is the mappings body. Nil when Kind is MappingUnresolved.
	Mapping map[string]any
}

// PhysicalIndex is a live index as reported by the cluster.
type PhysicalIndex struct {
	Name          string       `json:"name"`
	Logical       string       `json:"logical,omitempty"`
	Language      string       `json:"language,omitempty"`
	Commerce      bool         `json:"commerce"`
	Type          string       `json:"type"`
	Health        HealthStatus `json:"health"`
	Status        string       `json:"status,omitempty"`
	DocumentCount int64        `json:"document_count"`
	Size          string       `json:"size,omitempty"`
}
