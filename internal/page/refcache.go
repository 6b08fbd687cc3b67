package page

import (
	"container/list"
	"strings"
	"sync"
)

// RefCacheCap is how many ref maps the global cache retains.
const RefCacheCap = 50

// RefCache holds the last ref maps keyed by (normalized CDP URL, target id)
// so a ref lookup survives internal page entries being recreated, e.g. after
// a reconnect. Eviction is LRU by insertion order.
type RefCache struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	items map[string]*list.Element
}

type refCacheItem struct {
	key  string
	refs map[string]RefDescriptor
}

// NewRefCache creates a cache with the given capacity.
func NewRefCache(capacity int) *RefCache {
	if capacity <= 0 {
		capacity = RefCacheCap
	}
	return &RefCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Put stores a ref map for a (cdpURL, targetID) pair, evicting the least
// recently inserted entry when over capacity.
func (c *RefCache) Put(cdpURL, targetID string, refs map[string]RefDescriptor) {
	key := cacheKey(cdpURL, targetID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*refCacheItem).refs = refs
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&refCacheItem{key: key, refs: refs})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*refCacheItem).key)
	}
}

// Get returns the cached ref map for a pair, if present.
func (c *RefCache) Get(cdpURL, targetID string) (map[string]RefDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[cacheKey(cdpURL, targetID)]
	if !ok {
		return nil, false
	}
	return el.Value.(*refCacheItem).refs, true
}

// Len returns the number of cached ref maps.
func (c *RefCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// cacheKey normalizes the CDP URL (scheme and trailing slash variance) and
// joins it with the target id.
func cacheKey(cdpURL, targetID string) string {
	u := strings.TrimSuffix(strings.ToLower(cdpURL), "/")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "ws://")
	return u + "|" + targetID
}
