package mappings

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

// standardAnalyzer is used for languages without a built-in analyzer.
const standardAnalyzer = "standard"

// Built-in language analyzers of the search engine.
var languageAnalyzers = map[string]struct{}{
	"arabic": {}, "armenian": {}, "basque": {}, "bengali": {}, "bulgarian": {},
	"catalan": {}, "czech": {}, "danish": {}, "dutch": {}, "english": {},
	"estonian": {}, "finnish": {}, "french": {}, "galician": {}, "german": {},
	"greek": {}, "hindi": {}, "hungarian": {}, "indonesian": {}, "irish": {},
	"italian": {}, "latvian": {}, "lithuanian": {}, "norwegian": {}, "persian": {},
	"portuguese": {}, "romanian": {}, "russian": {}, "spanish": {}, "swedish": {},
	"turkish": {}, "thai": {},
}

// Settings produces request bodies for index creation and reconfiguration.
type Settings struct {
	Shards   int
	Replicas int
}

// AnalyzerFor maps a language code to the engine's analyzer for that language.
func AnalyzerFor(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return standardAnalyzer
	}
	base, _ := tag.Base()
	name := strings.ToLower(display.English.Languages().Name(language.Make(base.String())))
	if first, _, ok := strings.Cut(name, " "); ok {
		name = first
	}
	if _, ok := languageAnalyzers[name]; ok {
		return name
	}
	return standardAnalyzer
}

// CreateBody is the create-index body for resolved in language. Unresolved
// types get settings only.
func (s Settings) CreateBody(resolved domain.ResolvedType, languageCode string) map[string]any {
	body := map[string]any{
		"settings": map[string]any{
			"number_of_shards":   s.Shards,
			"number_of_replicas": s.Replicas,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"default": map[string]any{"type": AnalyzerFor(languageCode)},
				},
			},
		},
	}
	if resolved.Kind != domain.MappingUnresolved && resolved.Mapping != nil {
		body["mappings"] = resolved.Mapping
	}
	return body
}

// TokenizerSettings is the settings update that swaps the default analyzer's tokenizer.
func (s Settings) TokenizerSettings(tokenizer string) map[string]any {
	return map[string]any{
		"index": map[string]any{
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"default": map[string]any{
						"type":      "custom",
						"tokenizer": tokenizer,
						"filter":    []string{"lowercase"},
					},
				},
			},
		},
	}
}

// DynamicDisabled is the mapping update that turns off dynamic field inference.
func (Settings) DynamicDisabled() map[string]any {
	return map[string]any{"dynamic": false}
}
