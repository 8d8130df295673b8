package layout

import (
	"vesper/internal/mangle"
	"vesper/internal/types"
)

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

// cache is keyed by mangled name, so structurally equal types share entries.
type cache struct {
	byType map[string]cacheEntry
	enums  map[string]EnumLayout
}

func newCache() *cache {
	return &cache{
		byType: make(map[string]cacheEntry, 256),
		enums:  make(map[string]EnumLayout, 32),
	}
}

func cacheKey(t *types.Type) string {
	return mangle.Mangle(t)
}

func (c *cache) get(key string) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	l, ok := c.byType[key]
	return l, ok
}

func (c *cache) put(key string, l *cacheEntry) {
	if c == nil {
		return
	}
	if l == nil {
		delete(c.byType, key)
		return
	}
	c.byType[key] = *l
}
