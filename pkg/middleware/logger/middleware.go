package logger

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
	"go.uber.org/zap"
)

// Middleware writes one access log entry per request.
type Middleware struct {
	access *zap.Logger

	bodyMu    sync.RWMutex
	bodyPaths map[string]struct{}
}

func New(access *zap.Logger) *Middleware {
	if access == nil {
		access = zap.NewNop()
	}
	return &Middleware{access: access}
}

// RequestFields identifies r in log entries. It is what the bearer engine
// attaches to failure logs.
func RequestFields(r *http.Request) []zap.Field {
	return []zap.Field{
		zap.String("requestId", chimd.GetReqID(r.Context())),
		zap.String("httpMethod", r.Method),
		zap.String("uri", r.URL.Path),
		zap.String("remoteAddr", r.RemoteAddr),
	}
}

// withRequestID makes sure a request id is present even when chi's
// RequestID middleware is not mounted.
func withRequestID(r *http.Request) *http.Request {
	if chimd.GetReqID(r.Context()) != "" {
		return r
	}
	ctx := context.WithValue(r.Context(), chimd.RequestIDKey, uuid.NewString())
	return r.WithContext(ctx)
}

func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = withRequestID(r)
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Read and restore the body only when it will be logged.
			var body []byte
			if r.Body != nil && m.shouldLogBody(r) {
				if b, err := io.ReadAll(r.Body); err == nil {
					body = b
				}
				_ = r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			r, principal := auth.TrackPrincipal(r)

			start := time.Now()
			defer func() {
				p := principal()
				fields := append(RequestFields(r),
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("httpScheme", scheme),
					zap.String("httpProto", r.Proto),
					zap.Bool("isAuthenticated", p.Scheme != "" && !p.Anonymous),
					zap.Bool("isAnonymous", p.Anonymous),
					zap.String("authScheme", p.Scheme),
					zap.String("keyId", p.KeyID),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)
				if body != nil {
					fields = append(fields, zap.ByteString("requestData", body))
				}
				m.access.Info("access", fields...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
