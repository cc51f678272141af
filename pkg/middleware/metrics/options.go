package metrics

import (
	"net/http"
	"strings"
	"sync"
)

type pathOptions struct {
	mu         sync.RWMutex
	skipPaths  map[string]struct{}
	normalizer func(*http.Request) string
}

func newPathOptions() pathOptions {
	return pathOptions{
		skipPaths:  map[string]struct{}{"/metrics": {}},
		normalizer: func(r *http.Request) string { return r.URL.Path },
	}
}

// AddSkipPaths extends the skip list (default keeps only "/metrics").
func (c *Collector) AddSkipPaths(paths ...string) {
	c.paths.mu.Lock()
	defer c.paths.mu.Unlock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			c.paths.skipPaths[p] = struct{}{}
		}
	}
}

// SetPathNormalizer allows callers to normalize the URI label (e.g., collapse IDs).
// By default it returns r.URL.Path unchanged.
func (c *Collector) SetPathNormalizer(fn func(*http.Request) string) {
	if fn == nil {
		return
	}
	c.paths.mu.Lock()
	c.paths.normalizer = fn
	c.paths.mu.Unlock()
}

func (o *pathOptions) skip(r *http.Request) bool {
	o.mu.RLock()
	_, ok := o.skipPaths[r.URL.Path]
	o.mu.RUnlock()
	return ok
}

func (o *pathOptions) normalize(r *http.Request) string {
	o.mu.RLock()
	fn := o.normalizer
	o.mu.RUnlock()
	return fn(r)
}
