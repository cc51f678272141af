package core

import (
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
)

// BuildRouter mounts the manifest routes on d.Router. Per route the stages
// run in this order:
//
//	allow_anonymous override
//	auth (placement onRequest)
//	policy timeout
//	auth (placement preParsing or none)
//	guard
//	handler
//
// Public routes skip auth.
func BuildRouter(cfg manifest.Config, d BuildDeps) http.Handler {
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))

	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware())
	}
	if d.Collector != nil {
		d.Collector.AddSkipPaths("/ping")
		r.Use(d.Collector.Collect())
	}

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics)
	}

	for _, rt := range cfg.Routes {
		h := withGuard(wrapRoute(rt), d.Auth, rt.Guard)
		r.With(routeStages(rt, d)...).Handle(rt.Method, rt.Path, h)
	}
	return r.Mux()
}

func routeStages(rt manifest.Route, d BuildDeps) []func(http.Handler) http.Handler {
	var mw []func(http.Handler) http.Handler
	if rt.Guard.AllowAnonymous != nil {
		mw = append(mw, withAllowAnonymous(*rt.Guard.AllowAnonymous))
	}

	var verify func(http.Handler) http.Handler
	placement := bearer.HookPlacement("")
	if d.Auth != nil && !rt.Guard.Public {
		verify = d.Auth.Middleware()
		placement = d.Auth.Placement()
	}

	if placement == bearer.HookOnRequest {
		mw = append(mw, verify)
	}
	if rt.Policy.TimeoutMS > 0 {
		mw = append(mw, withTimeout(time.Duration(rt.Policy.TimeoutMS)*time.Millisecond))
	}
	// In manual mode the middleware still answers the failures it is
	// handed, so it sits in the same slot as preParsing.
	if placement == bearer.HookPreParsing || placement == bearer.HookNone {
		mw = append(mw, verify)
	}
	return mw
}
