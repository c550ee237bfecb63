package revenue

import (
	"sort"
	"strings"
)

// CatalogProduct is one row of the canonical product catalog.
type CatalogProduct struct {
	ID             int64
	Name           string
	NormalizedName string
}

// Catalog is the request-scoped, indexed view of the product catalog.
// It is built fresh for every report computation and never mutated afterwards.
type Catalog struct {
	products []CatalogProduct
	byID     map[int64]int
	byNorm   map[string]int
}

// NewCatalog indexes the given products by id and by normalized name.
// Normalized names are recomputed here so callers may pass rows with the
// field unset. Products are kept in ascending id order so lookups that scan
// are deterministic.
func NewCatalog(products []CatalogProduct) *Catalog {
	sorted := make([]CatalogProduct, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Catalog{
		products: sorted,
		byID:     make(map[int64]int, len(sorted)),
		byNorm:   make(map[string]int, len(sorted)),
	}
	for i := range c.products {
		p := &c.products[i]
		if p.NormalizedName == "" {
			p.NormalizedName = NormalizeName(p.Name)
		}
		c.byID[p.ID] = i
		if _, taken := c.byNorm[p.NormalizedName]; !taken {
			// First id wins on duplicate normalized names. Two catalog ids
			// claiming the same normalized name is an unresolved upstream
			// data issue, not something we guess a fix for here.
			c.byNorm[p.NormalizedName] = i
		}
	}
	return c
}

// Len returns the number of catalog products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// ByID looks a product up by its catalog id.
func (c *Catalog) ByID(id int64) (CatalogProduct, bool) {
	i, ok := c.byID[id]
	if !ok {
		return CatalogProduct{}, false
	}
	return c.products[i], true
}

// ByNormalizedName looks a product up by an exact normalized-name key.
func (c *Catalog) ByNormalizedName(key string) (CatalogProduct, bool) {
	i, ok := c.byNorm[key]
	if !ok {
		return CatalogProduct{}, false
	}
	return c.products[i], true
}

// MatchEventKey finds the catalog product for a ticketed-event key. The
// product name must literally contain the key (case-insensitive) or equal it
// after normalization. A bare normalized-index hit is deliberately not enough:
// aggressive normalization can make unrelated products collide, and an event
// key must never attach to a product whose visible name has nothing to do
// with it.
func (c *Catalog) MatchEventKey(key string) (CatalogProduct, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return CatalogProduct{}, false
	}
	lower := strings.ToLower(key)
	normKey := NormalizeName(key)
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), lower) || p.NormalizedName == normKey {
			return p, true
		}
	}
	return CatalogProduct{}, false
}
