// Package languages is the catalog of content languages the orchestrator provisions.
package languages

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

// Entry is one configured language.
type Entry struct {
	Code    string `yaml:"code"`
	Enabled bool   `yaml:"enabled"`
}

// Catalog lists languages in configuration order.
type Catalog struct {
	entries     []Entry
	neutralCode string
}

// NewCatalog validates codes and returns the catalog. neutralCode names the
// language used for language-independent indices.
func NewCatalog(entries []Entry, neutralCode string) (*Catalog, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		code := strings.ToLower(strings.TrimSpace(e.Code))
		if code == "" {
			return nil, errors.New("language with empty code")
		}
		if _, err := language.Parse(code); err != nil {
			return nil, fmt.Errorf("language %q: %w", e.Code, err)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("language %q listed twice", code)
		}
		seen[code] = struct{}{}
		out = append(out, Entry{Code: code, Enabled: e.Enabled})
	}
	return &Catalog{entries: out, neutralCode: strings.ToLower(strings.TrimSpace(neutralCode))}, nil
}

// Enabled returns the enabled languages with English display names.
func (c *Catalog) Enabled() []domain.Language {
	langs := make([]domain.Language, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Enabled {
			langs = append(langs, describe(e.Code))
		}
	}
	return langs
}

// Codes returns every configured code, enabled or not. Used to recognise
// managed indices for languages that were switched off.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.entries)+1)
	for _, e := range c.entries {
		codes = append(codes, e.Code)
	}
	if c.neutralCode != "" {
		codes = append(codes, c.neutralCode)
	}
	return codes
}

// Neutral is the language used for language-independent indices.
func (c *Catalog) Neutral() domain.Language {
	if c.neutralCode == "" {
		return domain.Language{}
	}
	return domain.Language{Code: c.neutralCode, Name: "Language neutral"}
}

func describe(code string) domain.Language {
	name := code
	if tag, err := language.Parse(code); err == nil {
		if n := display.English.Tags().Name(tag); n != "" {
			name = n
		}
	}
	return domain.Language{Code: code, Name: name}
}
