package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
)

// Collect produces the HTTP middleware that records the counters/histogram.
func (c *Collector) Collect() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			r, principal := auth.TrackPrincipal(r)
			startTime := time.Now()

			defer func() {
				// Skip self-scrape and any additional caller-configured paths
				if c.paths.skip(r) {
					return
				}

				p := principal()
				code := strconv.Itoa(ww.Status())
				uri := c.paths.normalize(r) // path only; avoid cardinality explosion
				method := r.Method

				c.totalHttpRequestsByAuth.WithLabelValues(p.Scheme, strconv.FormatBool(p.Anonymous)).Inc()
				c.totalHttpRequestsToUri.WithLabelValues(code, uri, method).Inc()
				c.totalHttpRequests.WithLabelValues(code, method).Inc()
				c.responseTime.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
