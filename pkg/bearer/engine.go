package bearer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/joeydtaylor/steeze-bearer/pkg/codec"
	"go.uber.org/zap"
)

// Continuation is called by Handle when the request may proceed (nil) or,
// in manual mode, with the failure the caller must answer.
type Continuation func(err error)

// Engine verifies requests against one RuntimeConfig. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cfg      *RuntimeConfig
	log      *zap.Logger
	fields   func(*http.Request) []zap.Field
	observer Observer
	codec    codec.Codec
}

// New normalizes opts and builds an Engine.
func New(opts Options, host Host) (*Engine, error) {
	cfg, err := Normalize(opts, host)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		log:      host.Logger,
		fields:   host.RequestFields,
		observer: host.Observer,
		codec:    codec.JSON,
	}, nil
}

func (e *Engine) Config() *RuntimeConfig { return e.cfg }

func (e *Engine) Placement() HookPlacement { return e.cfg.hook }

// Verify classifies r. Failures are logged and every outcome is reported to
// the host observer.
func (e *Engine) Verify(r *http.Request) Outcome {
	out := e.verify(r)
	e.Report(r, out)
	return out
}

// Evaluate classifies r without logging or observing it. Callers that
// combine several engines use it and Report the final outcome once.
func (e *Engine) Evaluate(r *http.Request) Outcome { return e.verify(r) }

// Report logs a failed outcome and hands out to the host observer.
func (e *Engine) Report(r *http.Request, out Outcome) {
	if out.Decision != Proceed {
		e.logFailure(r, out.Reason)
	}
	if e.observer != nil {
		e.observer.ObserveOutcome(r, out)
	}
}

func (e *Engine) verify(r *http.Request) Outcome {
	header := r.Header.Get("Authorization")
	if header == "" {
		if e.allowAnonymous(r.Context()) {
			return proceed(&Principal{Scheme: e.cfg.bearerType, Anonymous: true})
		}
		return unauthorized(ErrMissingHeader)
	}

	if !e.cfg.matchPrefix(header) {
		return unauthorized(ErrInvalidHeader)
	}
	token := strings.TrimSpace(header[len(e.cfg.prefix):])

	if e.cfg.usesKeys() {
		idx, ok := authenticate(e.cfg.keys, []byte(token))
		if !ok {
			return unauthorized(ErrInvalidCredential)
		}
		return proceed(&Principal{Scheme: e.cfg.bearerType, KeyID: e.cfg.keyIDs[idx]})
	}

	ctx := r.Context()
	out := classify(await(ctx, e.promise(ctx, token, r)))
	if out.Decision == Proceed {
		out.Principal = &Principal{Scheme: e.cfg.bearerType}
	}
	return out
}

func (e *Engine) allowAnonymous(ctx context.Context) bool {
	if v, ok := allowAnonymousOverride(ctx); ok {
		return v
	}
	return e.cfg.allowAnonymous
}

// promise funnels both verifier shapes, and panics raised while starting
// them, into one channel.
func (e *Engine) promise(ctx context.Context, token string, r *http.Request) (ch <-chan Result) {
	if e.cfg.asyncAuth == nil {
		return settled(callAuth(ctx, e.cfg.auth, token, r))
	}
	defer func() {
		if p := recover(); p != nil {
			ch = settled(Result{Err: panicError(p)})
		}
	}()
	c := e.cfg.asyncAuth(ctx, token, r)
	if c == nil {
		return settled(Result{})
	}
	return c
}

func callAuth(ctx context.Context, fn AuthFunc, token string, r *http.Request) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Err: panicError(p)}
		}
	}()
	ok, err := fn(ctx, token, r)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Value: ok}
}

func settled(res Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- res
	close(ch)
	return ch
}

// await blocks until the verifier settles. No timeout is applied; if the
// request is cancelled first the outcome is moot and reported as an error.
func await(ctx context.Context, ch <-chan Result) Result {
	select {
	case res, ok := <-ch:
		if !ok {
			return Result{}
		}
		return res
	case <-ctx.Done():
		return Result{Err: context.Cause(ctx)}
	}
}

func classify(res Result) Outcome {
	if res.Err != nil {
		return internalError(res.Err)
	}
	if v, ok := res.Value.(bool); ok {
		if v {
			return proceed(nil)
		}
		return unauthorized(ErrInvalidCredential)
	}
	return internalError(ErrNonBooleanResult)
}

// Handle runs verification for the (request, response, continuation)
// calling convention. When the engine is attached to a pipeline stage it
// answers failures itself; in manual mode it hands an *AuthError to done
// and leaves the response untouched.
func (e *Engine) Handle(w http.ResponseWriter, r *http.Request, done Continuation) {
	e.Settle(w, e.Verify(r), done)
}

// Settle applies an Outcome produced by Verify.
func (e *Engine) Settle(w http.ResponseWriter, out Outcome, done Continuation) {
	if out.Decision == Proceed {
		if err := callContinuation(done); err != nil {
			done(err)
		}
		return
	}
	aerr := &AuthError{Status: out.Status(), Err: out.Reason}
	if e.cfg.hook == HookNone {
		done(aerr)
		return
	}
	e.WriteError(w, aerr)
}

func callContinuation(done Continuation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()
	done(nil)
	return nil
}

// WriteError answers a failed verification with the configured payload.
// Errors that are not *AuthError are answered with 500.
func (e *Engine) WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	reason := err
	var aerr *AuthError
	if errors.As(err, &aerr) {
		status = aerr.Status
		reason = aerr.Err
	}
	if werr := codec.Write(w, e.codec, status, e.cfg.contentType, e.cfg.errorResponse(reason)); werr != nil && e.log != nil {
		e.log.Warn("bearer: write error response", zap.Error(werr))
	}
}

func (e *Engine) logFailure(r *http.Request, reason error) {
	if !e.cfg.logEnabled || e.log == nil {
		return
	}
	ce := e.log.Check(e.cfg.logLevel, "unauthorized: "+reason.Error())
	if ce == nil {
		return
	}
	var fields []zap.Field
	if e.fields != nil {
		fields = e.fields(r)
	}
	ce.Write(fields...)
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}
