package bundle

import "fmt"

// Cache is the ordered id -> module registry of one build. It owns the
// modules; everything else refers to them by canonical id.
type Cache struct {
	order []string
	mods  map[string]*Module
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{mods: make(map[string]*Module)}
}

// Get returns the cached module for id.
func (c *Cache) Get(id string) (*Module, bool) {
	m, ok := c.mods[id]
	return m, ok
}

// Len returns the number of modules.
func (c *Cache) Len() int {
	return len(c.order)
}

// IDs returns the canonical ids in insertion order.
func (c *Cache) IDs() []string {
	return append([]string(nil), c.order...)
}

// Modules returns the modules in insertion order.
func (c *Cache) Modules() []*Module {
	out := make([]*Module, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.mods[id])
	}
	return out
}

// insert добавляет модуль; повторная вставка того же id - ошибка билдера.
func (c *Cache) insert(m *Module) {
	if _, dup := c.mods[m.ID]; dup {
		panic(fmt.Sprintf("bundle: module %q inserted twice", m.ID))
	}
	c.mods[m.ID] = m
	c.order = append(c.order, m.ID)
}
