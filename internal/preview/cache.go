// Package preview memoizes fetched file previews and renders them for
// the terminal.
package preview

import "github.com/linusboehm/rats3/internal/backend"

// Cache holds fetched preview contents keyed by path. It is owned by
// the update loop and is not safe for concurrent use; fetches run in
// the background but report back through the loop.
type Cache struct {
	contents map[string]backend.PreviewContent
	inflight map[string]struct{}
}

func NewCache() *Cache {
	return &Cache{
		contents: map[string]backend.PreviewContent{},
		inflight: map[string]struct{}{},
	}
}

// Get returns the cached content for path. A path whose fetch is still
// running reports a Loading placeholder.
func (c *Cache) Get(path string) (backend.PreviewContent, bool) {
	if pc, ok := c.contents[path]; ok {
		return pc, true
	}
	if _, ok := c.inflight[path]; ok {
		return backend.PreviewContent{Kind: backend.PreviewLoading}, true
	}
	return backend.PreviewContent{}, false
}

// StartFetch marks path as in flight and reports whether the caller
// should launch a fetch. Cached and already in-flight paths return
// false, so at most one fetch runs per path.
func (c *Cache) StartFetch(path string) bool {
	if _, ok := c.contents[path]; ok {
		return false
	}
	if _, ok := c.inflight[path]; ok {
		return false
	}
	c.inflight[path] = struct{}{}
	return true
}

// Put stores a completed fetch. Results for paths the user has moved
// away from are kept; they serve instantly on return.
func (c *Cache) Put(path string, pc backend.PreviewContent) {
	delete(c.inflight, path)
	c.contents[path] = pc
}

// Abort drops the in-flight mark for path without storing a result.
func (c *Cache) Abort(path string) {
	delete(c.inflight, path)
}

// Clear empties the cache. Called when the listing root changes, since
// relative paths from the old root would alias new ones.
func (c *Cache) Clear() {
	c.contents = map[string]backend.PreviewContent{}
	c.inflight = map[string]struct{}{}
}

func (c *Cache) Len() int { return len(c.contents) }
