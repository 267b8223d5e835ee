package storefront

import (
	_ "embed"
	"fmt"

	"github.com/arisrestaurant/food-delivery/cart"
	"gopkg.in/yaml.v3"
)

// BundledPrefix marks ids of items shipped with the client.
const BundledPrefix = "bundled-"

type Item struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Category    string  `json:"category" yaml:"category"`
	Image       string  `json:"image" yaml:"image"`
	Bundled     bool    `json:"bundled" yaml:"-"`
}

//go:embed bundled_menu.yaml
var bundledMenuYAML []byte

// BundledMenu returns the static menu that is always available, even when
// the API is not.
func BundledMenu() ([]Item, error) {
	var doc struct {
		Items []Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(bundledMenuYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse bundled menu: %w", err)
	}
	for i := range doc.Items {
		doc.Items[i].ID = BundledPrefix + doc.Items[i].ID
		doc.Items[i].Bundled = true
	}
	return doc.Items, nil
}

// Catalog is an ordered, id-deduplicated menu. Items are never removed.
type Catalog struct {
	items []Item
	index map[string]int
}

func NewCatalog(seed []Item) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	c.Merge(seed)
	return c
}

// Merge adds unseen items and refreshes known ones in place. It returns the
// items that were new.
func (c *Catalog) Merge(items []Item) []Item {
	var added []Item
	for _, it := range items {
		if i, ok := c.index[it.ID]; ok {
			c.items[i] = it
			continue
		}
		c.index[it.ID] = len(c.items)
		c.items = append(c.items, it)
		added = append(added, it)
	}
	return added
}

func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Prices() cart.Prices {
	prices := make(cart.Prices, len(c.items))
	for _, it := range c.items {
		prices[it.ID] = it.Price
	}
	return prices
}
