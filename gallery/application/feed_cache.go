package application

import (
	"sync"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

// FeedCache holds every page fetched so far as a flat, ordered collection
// keyed by image id. Pagination only ever appends; Prepend, RefreshHead and
// Reset are reserved for invalidation.
type FeedCache struct {
	mu      sync.RWMutex
	items   []domain.ImageRecord
	index   map[string]int
	cursor  string
	hasMore bool
	loaded  bool
}

// NewFeedCache creates an empty cache that expects more pages.
func NewFeedCache() *FeedCache {
	return &FeedCache{
		index:   make(map[string]int),
		hasMore: true,
	}
}

// Append merges a page at the tail, skipping ids that are already present,
// and takes the page cursor as the next pagination position.
func (c *FeedCache) Append(page domain.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(page)
}

// Prepend inserts a record at the head. If the id is already cached the old
// entry is dropped so the newer record wins.
func (c *FeedCache) Prepend(record domain.ImageRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(record.ID)
	c.items = append([]domain.ImageRecord{record}, c.items...)
	c.reindexLocked()
}

// RefreshHead merges a freshly fetched head page after an invalidation.
// Records ahead of the first cached one are unknown and go before everything
// cached, in server order; known records are replaced in place. Unknown
// records after the first known one lie past the cached tail and are left to
// pagination. The pagination cursor is kept, unless nothing has been loaded
// yet, in which case the page is simply appended.
func (c *FeedCache) RefreshHead(page domain.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.appendLocked(page)
		return
	}

	fresh := make([]domain.ImageRecord, 0, len(page.Items))
	seen := make(map[string]struct{}, len(page.Items))
	joined := false
	for _, item := range page.Items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		if i, exists := c.index[item.ID]; exists {
			c.items[i] = item
			joined = true
			continue
		}
		if !joined {
			fresh = append(fresh, item)
		}
	}

	if len(fresh) == 0 {
		return
	}

	c.items = append(fresh, c.items...)
	c.reindexLocked()
}

// Replace swaps the whole cache for page, as if it were the first page
// appended after a Reset.
func (c *FeedCache) Replace(page domain.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.index = make(map[string]int)
	c.appendLocked(page)
}

// ContainsAny reports whether any of records is cached.
func (c *FeedCache) ContainsAny(records []domain.ImageRecord) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range records {
		if _, ok := c.index[r.ID]; ok {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the cached records in feed order.
func (c *FeedCache) Snapshot() []domain.ImageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ImageRecord, len(c.items))
	copy(out, c.items)
	return out
}

// Reset clears the cache so pagination restarts from the head.
func (c *FeedCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.index = make(map[string]int)
	c.cursor = ""
	c.hasMore = true
	c.loaded = false
}

// Cursor returns the cursor of the most recently appended page.
func (c *FeedCache) Cursor() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// HasMore reports whether another page may exist.
func (c *FeedCache) HasMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasMore
}

// Loaded reports whether at least one page has been appended since the last reset.
func (c *FeedCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Len returns the number of cached records.
func (c *FeedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the cached record with the given id.
func (c *FeedCache) Get(id string) (domain.ImageRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return domain.ImageRecord{}, false
	}
	return c.items[i], true
}

func (c *FeedCache) appendLocked(page domain.Page) {
	for _, item := range page.Items {
		if _, exists := c.index[item.ID]; exists {
			continue
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}

	c.cursor = page.Cursor
	c.hasMore = page.HasNext()
	c.loaded = true
}

func (c *FeedCache) removeLocked(id string) {
	i, ok := c.index[id]
	if !ok {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
}

func (c *FeedCache) reindexLocked() {
	c.index = make(map[string]int, len(c.items))
	for i, item := range c.items {
		c.index[item.ID] = i
	}
}
