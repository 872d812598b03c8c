// Package quota holds the catalog of quota tiers a namespace may select for
// each resource kind.
package quota

import (
	"fmt"

	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

// ResourceKind names a quota-governed resource.
type ResourceKind string

const (
	CPU     ResourceKind = "cpu"
	Memory  ResourceKind = "memory"
	Storage ResourceKind = "storage"
)

// Kinds lists every resource kind in display order.
var Kinds = []ResourceKind{CPU, Memory, Storage}

// ParseKind resolves a resource kind by name.
func ParseKind(s string) (ResourceKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", appErr.Validation("kind", fmt.Sprintf("unknown resource kind %q", s))
}

// Tier is one selectable option for a resource kind.
type Tier struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Catalog is an immutable set of ordered tiers per resource kind. Tiers are
// listed from the smallest capacity to the largest.
type Catalog struct {
	tiers map[ResourceKind][]Tier
	index map[ResourceKind]map[string]int
}

// NewCatalog builds a catalog. Every kind must have at least one tier and
// keys must be unique within a kind.
func NewCatalog(tiers map[ResourceKind][]Tier) (*Catalog, error) {
	c := &Catalog{
		tiers: make(map[ResourceKind][]Tier, len(Kinds)),
		index: make(map[ResourceKind]map[string]int, len(Kinds)),
	}
	for kind := range tiers {
		if _, err := ParseKind(string(kind)); err != nil {
			return nil, err
		}
	}
	for _, kind := range Kinds {
		list := tiers[kind]
		if len(list) == 0 {
			return nil, fmt.Errorf("quota catalog: no tiers for %s", kind)
		}
		idx := make(map[string]int, len(list))
		for i, t := range list {
			if t.Key == "" {
				return nil, fmt.Errorf("quota catalog: empty key in %s tier %d", kind, i)
			}
			if _, dup := idx[t.Key]; dup {
				return nil, fmt.Errorf("quota catalog: duplicate %s tier %q", kind, t.Key)
			}
			idx[t.Key] = i
		}
		c.tiers[kind] = append([]Tier(nil), list...)
		c.index[kind] = idx
	}
	return c, nil
}

// TiersFor returns the ordered tiers of a kind.
func (c *Catalog) TiersFor(kind ResourceKind) ([]Tier, error) {
	list, ok := c.tiers[kind]
	if !ok {
		return nil, appErr.Validation("kind", fmt.Sprintf("unknown resource kind %q", kind))
	}
	return append([]Tier(nil), list...), nil
}

// IsValidTier reports whether key is a tier of kind.
func (c *Catalog) IsValidTier(kind ResourceKind, key string) bool {
	_, ok := c.index[kind][key]
	return ok
}

// Check returns a validation error naming the kind when key is not one of its tiers.
func (c *Catalog) Check(kind ResourceKind, key string) error {
	if c.IsValidTier(kind, key) {
		return nil
	}
	return appErr.Validation(string(kind), fmt.Sprintf("unknown %s tier %q", kind, key))
}

// Rank returns the position of key within kind, smallest first, or -1.
func (c *Catalog) Rank(kind ResourceKind, key string) int {
	if i, ok := c.index[kind][key]; ok {
		return i
	}
	return -1
}

// DefaultTier is the smallest tier of kind, assigned to new projects.
func (c *Catalog) DefaultTier(kind ResourceKind) string {
	return c.tiers[kind][0].Key
}

// Label returns the human label of a tier, or the key itself when unknown.
func (c *Catalog) Label(kind ResourceKind, key string) string {
	if i, ok := c.index[kind][key]; ok {
		return c.tiers[kind][i].Label
	}
	return key
}
