package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
)

// withGuard enforces the route guard after verification. Anonymous
// principals pass unless the guard requires authentication or key ids.
func withGuard(next http.HandlerFunc, a *auth.Plugin, g manifest.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Without a plugin nothing can be authenticated.
		if a == nil {
			if g.RequireAuth || len(g.KeyIDs) > 0 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r)
			return
		}

		if (g.RequireAuth || len(g.KeyIDs) > 0) && !auth.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if len(g.KeyIDs) > 0 && !auth.HasKey(r.Context(), g.KeyIDs...) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

// withAllowAnonymous applies guard.allow_anonymous ahead of verification.
func withAllowAnonymous(allow bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(bearer.WithAllowAnonymous(r.Context(), allow)))
		})
	}
}
