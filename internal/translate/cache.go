package translate

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
)

// Cache memoizes extraction results by source locator and content hash.
// An entry is stored only after a successful extraction and is never
// replaced; concurrent misses on one key run the extraction once. Cached
// trees are shared and must not be modified.
type Cache struct {
	group   singleflight.Group
	entries sync.Map // key -> *extract.Tree
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

func cacheKey(locator, text string) string {
	sum := sha256.Sum256([]byte(text))
	return locator + "\x00" + hex.EncodeToString(sum[:])
}

// Extract returns the tree cached for (locator, text), calling fn on a
// miss. hit reports whether the tree came from the cache.
func (c *Cache) Extract(locator, text string, fn func() (*extract.Tree, error)) (tree *extract.Tree, hit bool, err error) {
	key := cacheKey(locator, text)
	if v, ok := c.entries.Load(key); ok {
		return v.(*extract.Tree), true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}
		tree, err := fn()
		if err != nil {
			return nil, err
		}
		actual, _ := c.entries.LoadOrStore(key, tree)
		return actual, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*extract.Tree), false, nil
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
