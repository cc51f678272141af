package bearer

import (
	"context"
	"net/http"
)

// SpecCompliance selects how the bearer-type prefix is matched.
type SpecCompliance string

const (
	// RFC6749 matches the bearer type case-insensitively.
	RFC6749 SpecCompliance = "rfc6749"
	// RFC6750 requires the exact case of the configured bearer type.
	RFC6750 SpecCompliance = "rfc6750"
)

// HookPlacement is the pipeline stage the engine is attached to.
type HookPlacement string

const (
	HookOnRequest  HookPlacement = "onRequest"
	HookPreParsing HookPlacement = "preParsing"
	// HookNone exposes the engine for manual invocation instead of attaching it.
	HookNone HookPlacement = "none"
)

// AuthFunc is a synchronous verifier. A panic is treated like a returned error.
type AuthFunc func(ctx context.Context, token string, r *http.Request) (bool, error)

// AsyncAuthFunc is an asynchronous verifier. The engine waits for one Result
// on the returned channel; a channel closed without a value counts as a
// non-boolean result.
type AsyncAuthFunc func(ctx context.Context, token string, r *http.Request) <-chan Result

// ErrorResponseFunc shapes the body sent for a failed verification.
type ErrorResponseFunc func(err error) any

// KeySet is a set of static keys.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from keys.
func NewKeySet(keys ...string) KeySet {
	ks := make(KeySet, len(keys))
	for _, k := range keys {
		ks[k] = struct{}{}
	}
	return ks
}

// Options is the caller-facing configuration. Zero fields take defaults.
type Options struct {
	// Keys is a sequence ([]string, []any) or a set (KeySet,
	// map[string]struct{}, map[string]bool) of static tokens.
	Keys any

	Auth      AuthFunc
	AsyncAuth AsyncAuthFunc

	BearerType     string
	SpecCompliance SpecCompliance

	// ContentType overrides the content type of error responses.
	ContentType   string
	ErrorResponse ErrorResponseFunc

	// Hook is nil, a bool, a string or a HookPlacement.
	Hook any

	// LogLevel is the zap level used for failure logs. nil means the
	// default ("error"); a pointer to "" disables failure logging.
	LogLevel *string

	// AllowAnonymous lets requests without an Authorization header through.
	AllowAnonymous bool
}

// Level returns a pointer suitable for Options.LogLevel.
func Level(name string) *string { return &name }

const (
	defaultBearerType = "Bearer"
	defaultLogLevel   = "error"
)

// DefaultErrorResponse renders {"error": "<message>"}.
func DefaultErrorResponse(err error) any {
	return map[string]string{"error": err.Error()}
}

// DefaultOptions returns a fresh copy of the documented defaults.
func DefaultOptions() Options {
	return Options{
		Keys:           []string{},
		BearerType:     defaultBearerType,
		SpecCompliance: RFC6750,
		ErrorResponse:  DefaultErrorResponse,
		Hook:           HookOnRequest,
	}
}

// merge overlays the non-zero fields of o onto defaults and returns the result.
// Neither input is modified.
func merge(defaults, o Options) Options {
	out := defaults
	if o.Keys != nil {
		out.Keys = o.Keys
	}
	if o.Auth != nil {
		out.Auth = o.Auth
	}
	if o.AsyncAuth != nil {
		out.AsyncAuth = o.AsyncAuth
	}
	if o.BearerType != "" {
		out.BearerType = o.BearerType
	}
	if o.SpecCompliance != "" {
		out.SpecCompliance = o.SpecCompliance
	}
	if o.ContentType != "" {
		out.ContentType = o.ContentType
	}
	if o.ErrorResponse != nil {
		out.ErrorResponse = o.ErrorResponse
	}
	if o.Hook != nil {
		out.Hook = o.Hook
	}
	if o.LogLevel != nil {
		lvl := *o.LogLevel
		out.LogLevel = &lvl
	}
	out.AllowAnonymous = o.AllowAnonymous
	return out
}
