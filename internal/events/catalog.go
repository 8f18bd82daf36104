package events

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Type identifies one of the scripted event categories.
type Type string

const (
	TypeExploration Type = "exploration"
	TypeCombat      Type = "combat"
	TypeSocial      Type = "social"
	TypeWeather     Type = "weather"
)

// Entry is one scripted narrative beat. Entries are immutable.
type Entry struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Catalog maps each event type to its table of entries.
type Catalog map[Type][]Entry

//go:embed catalog.yaml
var catalogYAML []byte

// LoadCatalog parses the embedded event tables.
func LoadCatalog() (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse event catalog: %w", err)
	}
	for _, typ := range []Type{TypeExploration, TypeCombat, TypeSocial, TypeWeather} {
		if len(catalog[typ]) == 0 {
			return nil, fmt.Errorf("event catalog: empty table for %q", typ)
		}
	}
	return catalog, nil
}
