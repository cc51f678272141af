package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideLoggerMiddleware builds the access logger, written to
// http-access.log when Config.Dir is set.
func ProvideLoggerMiddleware(cfg Config) *Middleware {
	return New(NewLog(cfg.Dir, "http-access.log"))
}

// ProvideLogger is the system logger shared by the app and the bearer engine.
func ProvideLogger(cfg Config) *zap.Logger { return NewLog(cfg.Dir, "system.log") }

var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)
