package bearer

import (
	"context"
	"net/http"
)

// Decision is the terminal state of one verification.
type Decision int

const (
	Proceed Decision = iota
	Unauthorized
	InternalError
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Unauthorized:
		return "unauthorized"
	case InternalError:
		return "internal_error"
	}
	return "unknown"
}

// Result is the settled value of a verifier. Value should be a bool.
type Result struct {
	Value any
	Err   error
}

// Outcome is what Verify decided for a request.
type Outcome struct {
	Decision Decision
	// Reason is nil on Proceed.
	Reason error
	// Principal is set on Proceed.
	Principal *Principal
}

// Status maps the decision to an HTTP status; Proceed maps to 0.
func (o Outcome) Status() int {
	switch o.Decision {
	case Unauthorized:
		return http.StatusUnauthorized
	case InternalError:
		return http.StatusInternalServerError
	}
	return 0
}

// Principal describes who passed verification.
type Principal struct {
	Scheme    string `json:"scheme"`
	Anonymous bool   `json:"anonymous"`
	// KeyID identifies the matched static key without revealing it.
	KeyID string `json:"keyId,omitempty"`
}

type principalKey struct{}

type trackerKey struct{}

type tracker struct {
	p      *Principal
	parent *tracker
}

// WithPrincipal stores p on ctx. If an outer middleware called
// TrackPrincipal, p is also reported to it.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	t, _ := ctx.Value(trackerKey{}).(*tracker)
	for ; t != nil; t = t.parent {
		t.p = p
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// TrackPrincipal lets middleware that runs before verification learn the
// principal once the inner chain has returned. The returned func must be
// called from the request goroutine after next.ServeHTTP.
func TrackPrincipal(ctx context.Context) (context.Context, func() (*Principal, bool)) {
	parent, _ := ctx.Value(trackerKey{}).(*tracker)
	t := &tracker{parent: parent}
	return context.WithValue(ctx, trackerKey{}, t), func() (*Principal, bool) {
		if t.p != nil {
			return t.p, true
		}
		return PrincipalFromContext(ctx)
	}
}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

type anonymousKey struct{}

// WithAllowAnonymous overrides Options.AllowAnonymous for one request,
// typically from per-route configuration.
func WithAllowAnonymous(ctx context.Context, allow bool) context.Context {
	return context.WithValue(ctx, anonymousKey{}, allow)
}

func allowAnonymousOverride(ctx context.Context) (bool, bool) {
	v, ok := ctx.Value(anonymousKey{}).(bool)
	return v, ok
}

func proceed(p *Principal) Outcome { return Outcome{Decision: Proceed, Principal: p} }

func unauthorized(reason error) Outcome { return Outcome{Decision: Unauthorized, Reason: reason} }

func internalError(reason error) Outcome { return Outcome{Decision: InternalError, Reason: reason} }
