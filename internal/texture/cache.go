package texture

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// ErrNotFound is returned for texture names missing from the index.
var ErrNotFound = errors.New("texture: not found")

// Resolver resolves a texture name to a decoded image.
type Resolver interface {
	Resolve(texName string) (path string, img *image.NRGBA, err error)
}

type entry struct {
	img *image.NRGBA
	err error
}

// Cache is a concurrency-safe texture cache. Load failures are cached too.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	index *Index
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]entry),
		index: index,
	}
}

// Resolve loads and caches a texture by name. The path is returned whenever
// the name is indexed, even if the file fails to decode.
func (c *Cache) Resolve(texName string) (string, *image.NRGBA, error) {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrNotFound, texName)
	}

	// Fast path: read lock
	c.mu.RLock()
	e, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return path, e.img, e.err
	}

	// Slow path: load from disk
	img, err := Load(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, exists := c.items[path]; exists {
		return path, cached.img, cached.err
	}
	c.items[path] = entry{img: img, err: err}
	return path, img, err
}
