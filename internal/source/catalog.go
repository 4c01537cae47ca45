package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// CatalogEntry is one person in an offline catalog file.
type CatalogEntry struct {
	Name    string   `toml:"name"`
	Birth   string   `toml:"birth"`
	Aliases []string `toml:"aliases"`
}

type catalogFile struct {
	People []CatalogEntry `toml:"person"`
}

// Catalog answers lookups from a fixed list of people, matching the keyword
// against each entry's name and aliases after normalization.
type Catalog struct {
	name    string
	entries []CatalogEntry
	index   map[string]int
}

var _ Source = (*Catalog)(nil)

// NewCatalog indexes entries. Each entry's name is reported as its first
// alias. When two entries claim the same key the earlier one wins.
func NewCatalog(name string, entries []CatalogEntry) (*Catalog, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("catalog source name required")
	}
	c := &Catalog{
		name:    name,
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[string]int),
	}
	for _, entry := range entries {
		entry.Name = NormalizeName(entry.Name)
		entry.Birth = NormalizeBirth(entry.Birth)
		entry.Aliases = NormalizeAliases(append([]string{entry.Name}, entry.Aliases...))
		if len(entry.Aliases) == 0 {
			continue
		}
		pos := len(c.entries)
		c.entries = append(c.entries, entry)
		for _, key := range entry.Aliases {
			if _, taken := c.index[key]; !taken {
				c.index[key] = pos
			}
		}
	}
	return c, nil
}

// LoadCatalog reads a TOML catalog with [[person]] tables.
func LoadCatalog(name, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewCatalog(name, file.People)
}

// Name returns the catalog's source name.
func (c *Catalog) Name() string { return c.name }

// Len returns the number of indexed people.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the entry whose name or alias equals keyword.
func (c *Catalog) Lookup(ctx context.Context, keyword string) (*Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pos, ok := c.index[NormalizeName(keyword)]
	if !ok {
		return nil, nil
	}
	entry := c.entries[pos]
	return &Evidence{
		Name:    entry.Name,
		Birth:   entry.Birth,
		Aliases: append([]string(nil), entry.Aliases...),
	}, nil
}
