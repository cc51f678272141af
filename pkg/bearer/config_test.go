package bearer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNormalize_Defaults(t *testing.T) {
	t.Parallel()

	rc, err := Normalize(Options{Keys: []string{"a"}}, Host{Logger: zap.NewNop()})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", rc.BearerType())
	assert.Equal(t, RFC6750, rc.SpecCompliance())
	assert.Equal(t, HookOnRequest, rc.Hook())
	assert.Equal(t, "", rc.ContentType())
	assert.False(t, rc.AllowAnonymous())

	lvl, on := rc.LogLevel()
	assert.True(t, on)
	assert.Equal(t, zapcore.ErrorLevel, lvl)
}

func TestNormalize_DoesNotMutateDefaults(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Options{BearerType: "Token", Keys: []string{"a"}}, Host{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", DefaultOptions().BearerType)
}

func TestNormalize_Keys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		keys    any
		want    int
		wantErr error
	}{
		{name: "nil is empty", keys: nil, want: 0},
		{name: "slice", keys: []string{"a", "b"}, want: 2},
		{name: "slice with duplicates", keys: []string{"a", "b", "a"}, want: 2},
		{name: "decoded sequence", keys: []any{"a", "b"}, want: 2},
		{name: "key set", keys: NewKeySet("a", "b", "c"), want: 3},
		{name: "struct set", keys: map[string]struct{}{"a": {}}, want: 1},
		{name: "bool set skips false", keys: map[string]bool{"a": true, "b": false}, want: 1},
		{name: "non-string entry", keys: []any{"a", 1}, wantErr: ErrInvalidKeyEntryType},
		{name: "empty entry", keys: []string{"a", ""}, wantErr: ErrInvalidKeyEntryType},
		{name: "single string", keys: "a", wantErr: ErrInvalidKeysType},
		{name: "number", keys: 42, wantErr: ErrInvalidKeysType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rc, err := Normalize(Options{Keys: tt.keys}, Host{})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rc.KeyCount())
		})
	}
}

func TestNormalize_KeysIgnoredWithAuthFunc(t *testing.T) {
	t.Parallel()

	fn := func(context.Context, string, *http.Request) (bool, error) { return true, nil }
	_, err := Normalize(Options{Keys: 42, Auth: fn}, Host{})
	assert.NoError(t, err)
}

func TestNormalize_ConflictingAuth(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Options{
		Auth:      func(context.Context, string, *http.Request) (bool, error) { return true, nil },
		AsyncAuth: func(context.Context, string, *http.Request) <-chan Result { return nil },
	}, Host{})
	assert.ErrorIs(t, err, ErrConflictingAuth)
}

func TestNormalize_Hook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hook    any
		want    HookPlacement
		wantErr bool
	}{
		{hook: nil, want: HookOnRequest},
		{hook: true, want: HookOnRequest},
		{hook: false, want: HookNone},
		{hook: "none", want: HookNone},
		{hook: "onRequest", want: HookOnRequest},
		{hook: HookPreParsing, want: HookPreParsing},
		{hook: "preHandler", wantErr: true},
		{hook: "onrequest", wantErr: true},
		{hook: 1, wantErr: true},
	}
	for _, tt := range tests {
		rc, err := Normalize(Options{Hook: tt.hook}, Host{})
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidHookPlacement, "hook %v", tt.hook)
			continue
		}
		require.NoError(t, err, "hook %v", tt.hook)
		assert.Equal(t, tt.want, rc.Hook(), "hook %v", tt.hook)
	}
}

func TestNormalize_SpecCompliance(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Options{SpecCompliance: "invalid"}, Host{})
	assert.ErrorIs(t, err, ErrInvalidSpecCompliance)

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "BEARER_AUTH_INVALID_SPEC", cerr.Code())

	rc, err := Normalize(Options{SpecCompliance: RFC6749, BearerType: "Bearer"}, Host{})
	require.NoError(t, err)
	assert.Equal(t, "bearer ", rc.prefix)
}

func TestNormalize_LogLevel(t *testing.T) {
	t.Parallel()

	core, _ := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	t.Run("default without logger disables logging", func(t *testing.T) {
		rc, err := Normalize(Options{}, Host{})
		require.NoError(t, err)
		_, on := rc.LogLevel()
		assert.False(t, on)
	})

	t.Run("explicit level", func(t *testing.T) {
		rc, err := Normalize(Options{LogLevel: Level("warn")}, Host{Logger: logger})
		require.NoError(t, err)
		lvl, on := rc.LogLevel()
		assert.True(t, on)
		assert.Equal(t, zapcore.WarnLevel, lvl)
	})

	t.Run("empty level disables logging", func(t *testing.T) {
		rc, err := Normalize(Options{LogLevel: Level("")}, Host{Logger: logger})
		require.NoError(t, err)
		_, on := rc.LogLevel()
		assert.False(t, on)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := Normalize(Options{LogLevel: Level("trace")}, Host{Logger: logger})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidLogLevel)
		var lerr *InvalidLogLevelError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, "trace", lerr.Level)
		assert.Equal(t, "logger does not have level 'trace'", err.Error())
	})

	t.Run("explicit level without logger", func(t *testing.T) {
		_, err := Normalize(Options{LogLevel: Level("error")}, Host{})
		assert.ErrorIs(t, err, ErrInvalidLogLevel)
	})

	t.Run("level filtered by the logger", func(t *testing.T) {
		_, err := Normalize(Options{LogLevel: Level("debug")}, Host{Logger: logger})
		assert.ErrorIs(t, err, ErrInvalidLogLevel)

		_, err = Normalize(Options{LogLevel: Level("warn")}, Host{Logger: zap.NewNop()})
		assert.ErrorIs(t, err, ErrInvalidLogLevel)
	})

	t.Run("fatal is not offered", func(t *testing.T) {
		_, err := Normalize(Options{LogLevel: Level("fatal")}, Host{Logger: logger})
		assert.ErrorIs(t, err, ErrInvalidLogLevel)
	})
}

func TestNormalize_ContentType(t *testing.T) {
	t.Parallel()

	rc, err := Normalize(Options{ContentType: "application/problem+json"}, Host{})
	require.NoError(t, err)
	assert.Equal(t, "application/problem+json", rc.ContentType())

	_, err = Normalize(Options{ContentType: "json"}, Host{})
	assert.ErrorIs(t, err, ErrInvalidContentType)
}

func TestKeyID_IsStableAndOpaque(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KeyID("secret"), KeyID("secret"))
	assert.NotEqual(t, KeyID("secret"), KeyID("secret2"))
	assert.NotContains(t, KeyID("secret"), "secret")
	assert.Len(t, KeyID("secret"), 12)
}
