package metrics

import (
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewPromHttpHandler returns the /metrics handler for reg.
func NewPromHttpHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ProvideMetrics is the Fx provider used by the server wiring.
func ProvideMetrics(reg *prometheus.Registry) http.Handler { return NewPromHttpHandler(reg) }

func provideCollector(reg *prometheus.Registry) *Collector { return NewCollector(reg) }

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(provideCollector),
	fx.Provide(func(c *Collector) bearer.Observer { return c }),
	fx.Provide(fx.Annotate(ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
)
