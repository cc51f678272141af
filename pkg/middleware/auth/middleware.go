package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"go.uber.org/zap"
)

// VerifyFunc is the (request, response, continuation) callable handed to
// the host for a pipeline stage or for manual invocation.
type VerifyFunc func(w http.ResponseWriter, r *http.Request, done bearer.Continuation)

// Factory builds an independent engine from fresh options, sharing the
// plugin's host.
type Factory func(opts bearer.Options) (*bearer.Engine, error)

// Plugin is a registered bearer-auth instance. It owns the current engine
// and swaps it atomically on Reload.
type Plugin struct {
	host      bearer.Host
	opts      bearer.Options
	placement bearer.HookPlacement

	engine atomic.Pointer[bearer.Engine]

	mu        sync.RWMutex
	fallbacks []Strategy
}

// Register validates opts against host and returns the plugin. Nothing is
// attached anywhere; the host reads Placement and wires Hook (or Middleware)
// into the matching stage itself.
func Register(opts bearer.Options, host bearer.Host) (*Plugin, error) {
	e, err := bearer.New(opts, host)
	if err != nil {
		return nil, err
	}
	p := &Plugin{host: host, opts: opts, placement: e.Placement()}
	p.engine.Store(e)
	return p, nil
}

func (p *Plugin) Placement() bearer.HookPlacement { return p.placement }

// Engine returns the engine currently in effect.
func (p *Plugin) Engine() *bearer.Engine { return p.engine.Load() }

// Hook is the stage callable for onRequest and preParsing placements.
func (p *Plugin) Hook() VerifyFunc {
	return func(w http.ResponseWriter, r *http.Request, done bearer.Continuation) {
		p.Engine().Handle(w, r, done)
	}
}

// VerifyBearerAuth is the manually invokable callable. With placement none
// it signals failures through done instead of answering them.
func (p *Plugin) VerifyBearerAuth() VerifyFunc { return p.Hook() }

// VerifyBearerAuthFactory returns a builder for additional engines, e.g. to
// compose bearer verification with other strategies in a Chain.
func (p *Plugin) VerifyBearerAuthFactory() Factory {
	return func(opts bearer.Options) (*bearer.Engine, error) {
		return bearer.New(opts, p.host)
	}
}

// Reload rebuilds the engine with a new key list. The placement is fixed at
// registration and cannot change.
func (p *Plugin) Reload(keys []string) error {
	opts := p.opts
	opts.Keys = keys
	e, err := bearer.New(opts, p.host)
	if err != nil {
		return fmt.Errorf("auth: reload: %w", err)
	}
	p.engine.Store(e)
	return nil
}

// Fallback adds strategies tried, in order, when the plugin's own
// verification fails.
func (p *Plugin) Fallback(s ...Strategy) {
	p.mu.Lock()
	p.fallbacks = append(p.fallbacks, s...)
	p.mu.Unlock()
}

func (p *Plugin) fallbackList() []Strategy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Strategy(nil), p.fallbacks...)
}

// Strategy adapts the plugin to a Chain member.
func (p *Plugin) Strategy() Strategy {
	return func(r *http.Request) (*http.Request, error) {
		return EngineStrategy(p.Engine())(r)
	}
}

// WriteError answers a failed verification the way the engine would.
func (p *Plugin) WriteError(w http.ResponseWriter, err error) {
	p.Engine().WriteError(w, err)
}

// Middleware adapts the plugin to net/http. On success the verified
// principal is attached to the request context. In manual mode the signalled
// error is answered here, since no stage did it. Each request is logged and
// observed once, with the final decision across fallbacks.
func (p *Plugin) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			e := p.Engine()

			if fallbacks := p.fallbackList(); len(fallbacks) > 0 {
				p.chain(e, fallbacks, next).ServeHTTP(ww, r)
				return
			}

			out := e.Verify(r)
			e.Settle(ww, out, func(err error) {
				if errors.Is(err, http.ErrAbortHandler) {
					panic(err)
				}
				if err != nil {
					p.fail(e, ww, r, err)
					return
				}
				p.proceed(e, ww, r.WithContext(bearer.WithPrincipal(r.Context(), out.Principal)), next)
			})
		})
	}
}

// chain tries the engine and then each fallback. Strategies evaluate
// silently; the decision that ends the chain is the one reported.
func (p *Plugin) chain(e *bearer.Engine, fallbacks []Strategy, next http.Handler) http.Handler {
	strategies := append([]Strategy{EngineStrategy(e)}, fallbacks...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := w.(chimw.WrapResponseWriter)
		Chain(func(_ http.ResponseWriter, err error) {
			e.Report(r, outcomeOf(err))
			p.fail(e, ww, r, err)
		}, strategies...)(http.HandlerFunc(func(_ http.ResponseWriter, rr *http.Request) {
			principal, _ := bearer.PrincipalFromContext(rr.Context())
			e.Report(rr, bearer.Outcome{Decision: bearer.Proceed, Principal: principal})
			p.proceed(e, ww, rr, next)
		})).ServeHTTP(ww, r)
	})
}

// fail answers err. Verification failures get the configured error body;
// anything else is treated as an internal fault.
func (p *Plugin) fail(e *bearer.Engine, w chimw.WrapResponseWriter, r *http.Request, err error) {
	var aerr *bearer.AuthError
	if errors.As(err, &aerr) {
		e.WriteError(w, err)
		return
	}
	p.internal(e, w, r, err)
}

// proceed runs next, turning a panic into an internal fault.
func (p *Plugin) proceed(e *bearer.Engine, w chimw.WrapResponseWriter, r *http.Request, next http.Handler) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			p.internal(e, w, r, panicError(v))
		}
	}()
	next.ServeHTTP(w, r)
}

// internal logs err with the request fields and answers with a generic 500.
// Nothing is written once the handler has started its response.
func (p *Plugin) internal(e *bearer.Engine, w chimw.WrapResponseWriter, r *http.Request, err error) {
	if log := p.host.Logger; log != nil {
		fields := []zap.Field{zap.Error(err)}
		if p.host.RequestFields != nil {
			fields = append(fields, p.host.RequestFields(r)...)
		}
		log.Error("bearer: handler failed after verification", fields...)
	}
	if w.Status() != 0 {
		return
	}
	e.WriteError(w, &bearer.AuthError{Status: http.StatusInternalServerError, Err: bearer.ErrInternal})
}

func outcomeOf(err error) bearer.Outcome {
	var aerr *bearer.AuthError
	if errors.As(err, &aerr) {
		return aerr.Outcome()
	}
	return bearer.Outcome{Decision: bearer.InternalError, Reason: err}
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}

// EngineStrategy adapts an engine built by a Factory to a Chain member. It
// neither logs nor observes; Plugin.Middleware reports the chain's outcome.
func EngineStrategy(e *bearer.Engine) Strategy {
	return func(r *http.Request) (*http.Request, error) {
		out := e.Evaluate(r)
		if out.Decision != bearer.Proceed {
			return nil, &bearer.AuthError{Status: out.Status(), Err: out.Reason}
		}
		return r.WithContext(bearer.WithPrincipal(r.Context(), out.Principal)), nil
	}
}

var errNoStrategy = errors.New("auth: no strategy configured")
