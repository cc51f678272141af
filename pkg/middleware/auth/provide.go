package auth

import (
	"context"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/joeydtaylor/steeze-bearer/pkg/keyfile"
	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Build registers a plugin from the [bearer] manifest section. Static keys
// and the keys file are merged. When a JWT verifier is configured alongside
// keys it is chained as a fallback strategy; on its own it replaces the key
// check. The returned func releases the verifier.
func Build(ctx context.Context, b manifest.Bearer, host bearer.Host) (*Plugin, func(), error) {
	opts := b.Options()

	keys := append([]string(nil), b.Keys...)
	if b.KeysFile != "" {
		fileKeys, err := keyfile.Load(b.KeysFile)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, fileKeys...)
	}
	opts.Keys = keys

	closer := func() {}
	var jv *JWTVerifier
	if b.JWT != nil {
		var err error
		jv, err = NewJWTVerifier(ctx, jwtConfig(b.JWT))
		if err != nil {
			return nil, nil, err
		}
		closer = jv.Close
		if len(keys) == 0 {
			opts.Auth = jv.Verify
		}
	}

	p, err := Register(opts, host)
	if err != nil {
		closer()
		return nil, nil, err
	}

	if jv != nil && len(keys) > 0 {
		jopts := opts
		jopts.Keys = nil
		jopts.Auth = jv.Verify
		e, err := p.VerifyBearerAuthFactory()(jopts)
		if err != nil {
			closer()
			return nil, nil, err
		}
		p.Fallback(EngineStrategy(e))
	}
	return p, closer, nil
}

func jwtConfig(j *manifest.JWT) JWTConfig {
	return JWTConfig{
		JWKSURL:       j.JWKSURL,
		PublicKeyFile: j.PublicKeyFile,
		Issuer:        j.Issuer,
		Audience:      j.Audience,
		Algorithms:    j.Algorithms,
		Leeway:        time.Duration(j.LeewaySeconds) * time.Second,
	}
}

// WatchKeys reloads the plugin whenever the keys file changes. static keys
// are kept alongside the file's. It blocks until ctx is done.
func (p *Plugin) WatchKeys(ctx context.Context, path string, static []string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	return keyfile.Watch(ctx, path, log, func(fileKeys []string) {
		keys := append(append([]string(nil), static...), fileKeys...)
		if err := p.Reload(keys); err != nil {
			log.Error("bearer keys reload rejected", zap.Error(err))
		}
	})
}

// ProvidePlugin is the fx constructor. The keys file watcher and the JWKS
// refresher live for the lifetime of the app.
func ProvidePlugin(lc fx.Lifecycle, cfg manifest.Config, host bearer.Host, log *zap.Logger) (*Plugin, error) {
	ctx, cancel := context.WithCancel(context.Background())
	p, closer, err := Build(ctx, cfg.Bearer, host)
	if err != nil {
		cancel()
		return nil, err
	}

	var wg sync.WaitGroup
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("bearer auth registered",
				zap.String("placement", string(p.Placement())),
				zap.Int("keys", p.Engine().Config().KeyCount()),
				zap.Bool("jwt", cfg.Bearer.JWT != nil),
			)
			if cfg.Bearer.KeysFile == "" {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.WatchKeys(ctx, cfg.Bearer.KeysFile, cfg.Bearer.Keys, log); err != nil {
					log.Error("bearer keys watch stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			closer()
			wg.Wait()
			return nil
		},
	})
	return p, nil
}

var Module = fx.Options(
	fx.Provide(ProvidePlugin),
)
