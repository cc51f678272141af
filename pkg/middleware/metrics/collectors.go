package metrics

import (
	"errors"
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the HTTP and bearer-auth metrics. It implements
// bearer.Observer.
type Collector struct {
	responseTime *prometheus.HistogramVec

	totalHttpRequestsByAuth *prometheus.CounterVec
	totalHttpRequestsToUri  *prometheus.CounterVec
	totalHttpRequests       *prometheus.CounterVec

	authOutcomes *prometheus.CounterVec

	paths pathOptions
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		responseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "response_time",
				Help:    "http response time.",
				Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"method"},
		),
		totalHttpRequestsByAuth: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_by_auth", Help: "http requests by bearer scheme and anonymity"},
			[]string{"scheme", "anonymous"},
		),
		totalHttpRequestsToUri: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
			[]string{"code", "uri", "method"},
		),
		totalHttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		authOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "bearer_auth_outcomes_total", Help: "bearer verification outcomes by decision and reason"},
			[]string{"decision", "reason"},
		),
		paths: newPathOptions(),
	}
	reg.MustRegister(
		c.responseTime,
		c.totalHttpRequestsByAuth,
		c.totalHttpRequestsToUri,
		c.totalHttpRequests,
		c.authOutcomes,
	)
	return c
}

// ObserveOutcome counts one verification.
func (c *Collector) ObserveOutcome(_ *http.Request, o bearer.Outcome) {
	c.authOutcomes.WithLabelValues(o.Decision.String(), reasonLabel(o.Reason)).Inc()
}

func reasonLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bearer.ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, bearer.ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, bearer.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, bearer.ErrNonBooleanResult):
		return "non_boolean_result"
	}
	return "verifier_error"
}
