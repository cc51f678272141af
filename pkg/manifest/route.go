package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Route describes a single HTTP route.
type Route struct {
	Path    string   `toml:"path"`
	Method  string   `toml:"method"`
	Guard   Guard    `toml:"guard"`
	Policy  Policy   `toml:"policy"`
	Handler HSpec    `toml:"handler"`
	Tags    []string `toml:"tags"`
}

type Guard struct {
	// AllowAnonymous overrides [bearer].allow_anonymous for this route.
	AllowAnonymous *bool `toml:"allow_anonymous"`
	// RequireAuth rejects anonymous principals.
	RequireAuth bool `toml:"require_auth"`
	// KeyIDs limits the route to the listed static keys (see bearer.KeyID).
	KeyIDs []string `toml:"key_ids"`
	// Public routes skip bearer verification entirely.
	Public bool `toml:"public"`
}

type Policy struct {
	TimeoutMS int `toml:"timeout_ms"`
}

type HSpec struct {
	Type HandlerType `toml:"type"`
	Name string      `toml:"name"`
	// Body and Status configure static handlers.
	Body   string `toml:"body"`
	Status int    `toml:"status"`
}

// normalize path/method
func (r *Route) normalize() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if r.Path != "/" {
		r.Path = path.Clean(r.Path)
	}
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "GET"
	}
	return nil
}

// validate fields that are independent of global state.
func (r *Route) validate() error {
	switch r.Handler.Type {
	case HandlerInproc:
		if strings.TrimSpace(r.Handler.Name) == "" {
			return errors.New("handler.name required for inproc")
		}
	case HandlerStatic:
		if r.Handler.Status != 0 && (r.Handler.Status < 100 || r.Handler.Status > 599) {
			return fmt.Errorf("handler.status %d invalid", r.Handler.Status)
		}
	default:
		return fmt.Errorf("unknown handler type %q", r.Handler.Type)
	}

	if r.Guard.Public && (r.Guard.RequireAuth || len(r.Guard.KeyIDs) > 0) {
		return errors.New("guard.public cannot be combined with require_auth or key_ids")
	}
	if r.Policy.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	return nil
}
