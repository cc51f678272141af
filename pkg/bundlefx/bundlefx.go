package bundlefx

import (
	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideHost describes the bundled logger and metrics to the bearer engine.
func ProvideHost(log *zap.Logger, obs bearer.Observer) bearer.Host {
	return bearer.Host{
		Logger:        log,
		RequestFields: logger.RequestFields,
		Observer:      obs,
	}
}

// Module provided to fx. It needs a logger.Config and a manifest.Config.
var Module = fx.Options(
	logger.Module,
	metrics.Module,
	fx.Provide(ProvideHost),
	auth.Module,
)
