// Package theme holds the named sets of card content a bingo card can be
// filled from. Themes are immutable after the catalog is built at startup.
package theme

import (
	"fmt"
	"sort"
)

// Theme is a named pool of card content strings
type Theme struct {
	ID    string
	Name  string
	Items []string
}

// Catalog is a read-only lookup of themes by id
type Catalog struct {
	themes map[string]*Theme
}

// NewCatalog builds a catalog from the given themes. Duplicate ids are an
// error so that config-loaded themes cannot silently shadow builtins.
func NewCatalog(themes ...*Theme) (*Catalog, error) {
	c := &Catalog{themes: make(map[string]*Theme, len(themes))}
	for _, th := range themes {
		if th.ID == "" {
			return nil, fmt.Errorf("theme %q: id must not be empty", th.Name)
		}
		if _, ok := c.themes[th.ID]; ok {
			return nil, fmt.Errorf("duplicate theme id %q", th.ID)
		}
		c.themes[th.ID] = th
	}
	return c, nil
}

// Get returns the theme with the given id
func (c *Catalog) Get(id string) (*Theme, bool) {
	th, ok := c.themes[id]
	return th, ok
}

// List returns all themes sorted by id
func (c *Catalog) List() []*Theme {
	out := make([]*Theme, 0, len(c.themes))
	for _, th := range c.themes {
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of themes in the catalog
func (c *Catalog) Len() int {
	return len(c.themes)
}
