package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joeydtaylor/steeze-bearer/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-bearer/pkg/core"
	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-bearer/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env is the process environment the server reads at startup.
type Env struct {
	Manifest   string `env:"STEEZE_MANIFEST,default=manifest.toml"`
	ListenAddr string `env:"SERVER_LISTEN_ADDRESS,default=:4000"`
	TLSCert    string `env:"SSL_SERVER_CERTIFICATE"`
	TLSKey     string `env:"SSL_SERVER_KEY"`
	LogDir     string `env:"LOG_DIR"`
}

// LoadEnv decodes Env. Unset variables take their defaults.
func LoadEnv() (Env, error) {
	var env Env
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Env{}, fmt.Errorf("env: %w", err)
	}
	return env, nil
}

func provideManifest(env Env) (manifest.Config, error) {
	cfg, err := core.LoadConfig(env.Manifest)
	if err != nil {
		return manifest.Config{}, fmt.Errorf("%s: %w", env.Manifest, err)
	}
	return cfg, nil
}

func provideLoggerConfig(env Env) logger.Config { return logger.Config{Dir: env.LogDir} }

// ---- Router ----

type routerDeps struct {
	fx.In

	Cfg       manifest.Config
	Auth      *auth.Plugin
	LogMW     *logger.Middleware
	Collector *metrics.Collector
	Metrics   http.Handler `name:"metrics"`
	R         httpx.Router
}

func provideRouter(d routerDeps) http.Handler {
	return core.BuildRouter(d.Cfg, core.BuildDeps{
		Auth:      d.Auth,
		LogMW:     d.LogMW,
		Collector: d.Collector,
		Metrics:   d.Metrics,
		Router:    d.R,
	})
}

// ---- Server lifecycle ----

// Server owns the HTTP listener.
type Server struct {
	env Env
	log *zap.Logger
	srv *http.Server
	ln  net.Listener
}

type serverDeps struct {
	fx.In
	Env    Env
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func newServer(d serverDeps) *Server {
	return &Server{
		env: d.Env,
		log: d.Logger,
		srv: &http.Server{
			Handler:      d.App,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
		},
	}
}

// Addr is the bound address once the app has started.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) useTLS() bool { return fileExists(s.env.TLSCert) && fileExists(s.env.TLSKey) }

func (s *Server) start(context.Context) error {
	ln, err := net.Listen("tcp", s.env.ListenAddr)
	if err != nil {
		return err
	}
	s.ln = ln

	if s.useTLS() {
		s.log.Info("server starting (TLS)", zap.String("addr", ln.Addr().String()), zap.String("cert", s.env.TLSCert))
		go func() {
			if err := s.srv.ServeTLS(ln, s.env.TLSCert, s.env.TLSKey); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("server failed", zap.Error(err))
			}
		}()
		return nil
	}

	s.log.Info("server starting (PLAINTEXT)", zap.String("addr", ln.Addr().String()))
	s.srv.TLSConfig = nil
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) stop(ctx context.Context) error {
	s.log.Info("server stopping")
	return s.srv.Shutdown(ctx)
}

func registerHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{OnStart: s.start, OnStop: s.stop})
}

// ---- Public Fx module ----

// Module wires the whole server from env. Register inproc handlers with
// core.Register before the app starts.
func Module(env Env) fx.Option {
	return fx.Options(
		fx.Supply(env),
		fx.Provide(provideManifest, provideLoggerConfig),

		bundlefx.Module,

		fx.Provide(httpx.NewChi),
		fx.Provide(fx.Annotate(provideRouter, fx.ResultTags(`name:"app"`))),

		fx.Provide(newServer),
		fx.Invoke(registerHooks),
	)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
