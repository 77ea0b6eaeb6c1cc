// Package catalog is the read-only exercise reference list.
package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
)

// DefaultSearchLimit caps search results when the caller does not ask
// for a specific limit.
const DefaultSearchLimit = 10

// Entry is one catalog exercise.
type Entry struct {
	Name        string `json:"name"`
	BodyPart    string `json:"bodyPart"`
	Equipment   string `json:"equipment"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

// Catalog holds the entries in source order. Loaded once, never
// mutated.
type Catalog struct {
	entries []Entry
}

// Load reads a JSON catalog from the given filesystem path.
func Load(fsys fs.FS, path string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return &Catalog{entries: entries}, nil
}

// NewCatalog wraps an already-built entry list.
func NewCatalog(entries []Entry) *Catalog {
	return &Catalog{entries: entries}
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Search returns up to limit entries whose name contains query,
// case-insensitive, in catalog order. limit <= 0 uses
// DefaultSearchLimit. An empty query matches everything.
func (c *Catalog) Search(query string, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(query)

	var matches []Entry
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			matches = append(matches, e)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}
