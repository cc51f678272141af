package logger

import (
	"net/http"
	"strings"
)

// AddBodyLogPaths allows small JSON request bodies on the given paths to be
// included in access logs. Nothing is allowlisted by default.
func (m *Middleware) AddBodyLogPaths(paths ...string) {
	m.bodyMu.Lock()
	defer m.bodyMu.Unlock()
	if m.bodyPaths == nil {
		m.bodyPaths = make(map[string]struct{})
	}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			m.bodyPaths[p] = struct{}{}
		}
	}
}

// Only log small JSON request bodies on allowlisted routes.
func (m *Middleware) shouldLogBody(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if r.ContentLength <= 0 || r.ContentLength > 1<<16 { // 64 KiB cap
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	m.bodyMu.RLock()
	_, ok := m.bodyPaths[r.URL.Path]
	m.bodyMu.RUnlock()
	return ok
}
