package drinks

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogItem is the display metadata the UI needs for one drink type.
// AlcoholPercent is filled from the calculator table, never from the file.
type CatalogItem struct {
	Type           Type    `yaml:"type" json:"type"`
	Label          string  `yaml:"label" json:"label"`
	AlcoholPercent float64 `yaml:"-" json:"alcohol_percent"`
	DefaultVolume  int     `yaml:"default_volume" json:"default_volume"`
	VolumePresets  []int   `yaml:"volume_presets" json:"volume_presets"`
}

type catalogFile struct {
	Drinks []CatalogItem `yaml:"drinks"`
}

type Catalog struct {
	mu    sync.RWMutex
	items map[Type]*CatalogItem
}

// LoadCatalog reads a catalog YAML file. An empty path loads the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read drink catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML. Every drink type must appear exactly once.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse drink catalog: %w", err)
	}

	c := &Catalog{items: make(map[Type]*CatalogItem, len(Types))}
	for i := range file.Drinks {
		item := file.Drinks[i]
		if !item.Type.Valid() {
			return nil, fmt.Errorf("drink catalog: %w: %q", ErrUnknownType, item.Type)
		}
		if _, dup := c.items[item.Type]; dup {
			return nil, fmt.Errorf("drink catalog: duplicate entry for %s", item.Type)
		}
		if item.DefaultVolume <= 0 {
			return nil, fmt.Errorf("drink catalog: %s default_volume must be positive", item.Type)
		}
		for _, p := range item.VolumePresets {
			if p <= 0 {
				return nil, fmt.Errorf("drink catalog: %s has a non-positive preset", item.Type)
			}
		}
		if item.Label == "" {
			item.Label = string(item.Type)
		}
		item.AlcoholPercent = AlcoholPercent(item.Type)
		c.items[item.Type] = &item
	}

	for _, t := range Types {
		if _, ok := c.items[t]; !ok {
			return nil, fmt.Errorf("drink catalog: missing entry for %s", t)
		}
	}
	return c, nil
}

func (c *Catalog) Get(t Type) (CatalogItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[t]
	if !ok {
		return CatalogItem{}, false
	}
	return *item, true
}

// All returns the catalog in display order.
func (c *Catalog) All() []CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]CatalogItem, 0, len(Types))
	for _, t := range Types {
		if item, ok := c.items[t]; ok {
			result = append(result, *item)
		}
	}
	return result
}
