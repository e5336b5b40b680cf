// Package naming derives physical index names from logical configuration.
//
// The layout is {logicalName}[-{commerceSuffix}]-{languageCode}, lowercased.
// Existing deployments depend on it, so it must not change.
package naming

import (
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

// DefaultCommerceSuffix is the catalog suffix used when none is configured.
const DefaultCommerceSuffix = "commerce"

const separator = "-"

// Resolver is pure: it performs no I/O.
type Resolver struct {
	commerceSuffix string
}

// NewResolver returns a Resolver using suffix for commerce indices.
func NewResolver(commerceSuffix string) *Resolver {
	if strings.TrimSpace(commerceSuffix) == "" {
		commerceSuffix = DefaultCommerceSuffix
	}
	return &Resolver{commerceSuffix: strings.ToLower(commerceSuffix)}
}

// GetCustomIndexName joins base and language code.
func (r *Resolver) GetCustomIndexName(base, languageCode string) string {
	return strings.ToLower(base + separator + languageCode)
}

// PhysicalName is the primary index for cfg in language.
func (r *Resolver) PhysicalName(cfg domain.IndexConfig, languageCode string) string {
	return r.GetCustomIndexName(cfg.Name, languageCode)
}

// CommerceName is the commerce companion index for cfg in language.
func (r *Resolver) CommerceName(cfg domain.IndexConfig, languageCode string) string {
	return r.GetCustomIndexName(cfg.Name+separator+r.commerceSuffix, languageCode)
}

// Parsed is a physical name split back into its parts.
type Parsed struct {
	Logical  string
	Language string
	Commerce bool
}

// Parse maps a physical name back to one of configs. Only names whose language
// part is in languageCodes match, so unrelated indices sharing a prefix are
// never claimed. Longer logical names win over their prefixes.
func (r *Resolver) Parse(index string, configs []domain.IndexConfig, languageCodes []string) (Parsed, bool) {
	index = strings.ToLower(index)

	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Name)
	}
	slices.SortFunc(names, func(a, b string) int { return len(b) - len(a) })

	for _, name := range names {
		rest, ok := strings.CutPrefix(index, strings.ToLower(name)+separator)
		if !ok {
			continue
		}

		commerce := false
		if lang, isCommerce := strings.CutPrefix(rest, r.commerceSuffix+separator); isCommerce && knownLanguage(lang, languageCodes) {
			rest, commerce = lang, true
		}
		if knownLanguage(rest, languageCodes) {
			return Parsed{Logical: name, Language: rest, Commerce: commerce}, true
		}
	}
	return Parsed{}, false
}

func knownLanguage(code string, codes []string) bool {
	if code == "" {
		return false
	}
	return slices.ContainsFunc(codes, func(c string) bool { return strings.EqualFold(c, code) })
}
