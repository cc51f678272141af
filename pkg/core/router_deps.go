package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/metrics"
	httpx "github.com/joeydtaylor/steeze-bearer/pkg/transport/httpx"
)

// BuildDeps carries everything BuildRouter wires. Only Router is required.
type BuildDeps struct {
	Auth      *auth.Plugin
	LogMW     *logger.Middleware
	Collector *metrics.Collector
	Metrics   http.Handler
	Router    httpx.Router
}
