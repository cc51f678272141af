package auth

import (
	"context"
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
)

// GetPrincipal returns the principal attached by the middleware, or the zero
// value when the request was not verified.
func GetPrincipal(ctx context.Context) bearer.Principal {
	if p, ok := bearer.PrincipalFromContext(ctx); ok {
		return *p
	}
	return bearer.Principal{}
}

// IsAuthenticated reports whether the request presented a valid credential.
// Anonymous principals are not authenticated.
func IsAuthenticated(ctx context.Context) bool {
	p, ok := bearer.PrincipalFromContext(ctx)
	return ok && !p.Anonymous
}

func IsAnonymous(ctx context.Context) bool {
	p, ok := bearer.PrincipalFromContext(ctx)
	return ok && p.Anonymous
}

// HasKey reports whether the request was verified with one of the given
// static key ids.
func HasKey(ctx context.Context, ids ...string) bool {
	p, ok := bearer.PrincipalFromContext(ctx)
	if !ok || p.KeyID == "" {
		return false
	}
	for _, id := range ids {
		if p.KeyID == id {
			return true
		}
	}
	return false
}

// TrackPrincipal prepares r for middleware mounted before verification. The
// returned func reports the principal the inner chain attached, if any.
func TrackPrincipal(r *http.Request) (*http.Request, func() bearer.Principal) {
	ctx, found := bearer.TrackPrincipal(r.Context())
	return r.WithContext(ctx), func() bearer.Principal {
		if p, ok := found(); ok {
			return *p
		}
		return bearer.Principal{}
	}
}
