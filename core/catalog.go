package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/cohort/schema"
)

// CatalogEntry is one query of a summary catalog file.
type CatalogEntry struct {
	Query                string `yaml:"query"`
	schema.QueryMetadata `yaml:",inline"`
}

// Catalog lists the queries of a population summary in report order.
type Catalog struct {
	Name    string         `yaml:"name"`
	Queries []CatalogEntry `yaml:"queries"`
}

// ParseCatalog decodes a YAML summary catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cannot parse query catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Queries))
	for i := range c.Queries {
		q := strings.TrimSpace(c.Queries[i].Query)
		if q == "" {
			return nil, fmt.Errorf("catalog entry %d has no query", i)
		}
		if seen[q] {
			return nil, fmt.Errorf("query %s is listed twice", q)
		}
		seen[q] = true
		c.Queries[i].Query = q
	}
	return &c, nil
}

// LoadCatalog reads a YAML summary catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read query catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Metadata indexes the catalog by query.
func (c *Catalog) Metadata() map[string]schema.QueryMetadata {
	out := make(map[string]schema.QueryMetadata, len(c.Queries))
	for _, e := range c.Queries {
		out[e.Query] = e.QueryMetadata
	}
	return out
}

// Titles lists the catalog queries in order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.Queries))
	for i, e := range c.Queries {
		out[i] = e.Query
	}
	return out
}
