package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[bearer]
keys = ["key", "other"]
bearer_type = "Token"
spec_compliance = "rfc6749"
content_type = "application/problem+json"
hook = "preParsing"
log_level = "warn"
allow_anonymous = true

[[route]]
path = "foo/"
handler = { type = "inproc", name = "authenticated" }

[[route]]
path = "/health"
method = "get"
guard = { public = true }
handler = { type = "static", body = "ok" }

[[route]]
path = "/admin"
method = "post"
guard = { allow_anonymous = false, require_auth = true, key_ids = ["abc"] }
policy = { timeout_ms = 250 }
handler = { type = "static", status = 204 }
`

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	b := cfg.Bearer
	assert.Equal(t, []string{"key", "other"}, b.Keys)
	assert.Equal(t, "preParsing", b.Hook)
	require.NotNil(t, b.LogLevel)
	assert.Equal(t, "warn", *b.LogLevel)

	require.Len(t, cfg.Routes, 3)
	assert.Equal(t, "/foo", cfg.Routes[0].Path)
	assert.Equal(t, "GET", cfg.Routes[0].Method)
	assert.True(t, cfg.Routes[1].Guard.Public)

	admin := cfg.Routes[2]
	assert.Equal(t, "POST", admin.Method)
	require.NotNil(t, admin.Guard.AllowAnonymous)
	assert.False(t, *admin.Guard.AllowAnonymous)
	assert.Equal(t, 250, admin.Policy.TimeoutMS)
	assert.Equal(t, 204, admin.Handler.Status)
}

func TestBearerOptions(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	opts := cfg.Bearer.Options()
	assert.Equal(t, []string{"key", "other"}, opts.Keys)
	assert.Equal(t, "Token", opts.BearerType)
	assert.Equal(t, bearer.RFC6749, opts.SpecCompliance)
	assert.Equal(t, "application/problem+json", opts.ContentType)
	assert.True(t, opts.AllowAnonymous)

	e, err := bearer.New(opts, bearer.Host{Logger: nil})
	// An explicit log level needs a host logger.
	assert.Nil(t, e)
	assert.ErrorIs(t, err, bearer.ErrInvalidLogLevel)
}

func TestBearerOptions_AbsentFieldsKeepDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
[bearer]
keys = ["key"]
hook = false

[[route]]
path = "/foo"
handler = { type = "static" }
`))
	require.NoError(t, err)
	assert.Nil(t, cfg.Bearer.LogLevel)
	assert.Equal(t, false, cfg.Bearer.Hook)

	e, err := bearer.New(cfg.Bearer.Options(), bearer.Host{})
	require.NoError(t, err)
	assert.Equal(t, bearer.HookNone, e.Placement())
	assert.Equal(t, "Bearer", e.Config().BearerType())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "no credential source",
			doc:  "[bearer]\n[[route]]\npath='/a'\nhandler={type='static'}\n",
			msg:  "bearer: one of keys, keys_file or jwt is required",
		},
		{
			name: "jwt without key source",
			doc:  "[bearer.jwt]\nissuer='x'\n[[route]]\npath='/a'\nhandler={type='static'}\n",
			msg:  "bearer: jwt: exactly one of jwks_url or public_key_file is required",
		},
		{
			name: "no routes",
			doc:  "[bearer]\nkeys=['k']\n",
			msg:  "no routes defined",
		},
		{
			name: "unknown handler",
			doc:  "[bearer]\nkeys=['k']\n[[route]]\npath='/a'\nhandler={type='proxy'}\n",
			msg:  `route 0 (GET /a): unknown handler type "proxy"`,
		},
		{
			name: "inproc without name",
			doc:  "[bearer]\nkeys=['k']\n[[route]]\npath='/a'\nhandler={type='inproc'}\n",
			msg:  "route 0 (GET /a): handler.name required for inproc",
		},
		{
			name: "public with key ids",
			doc:  "[bearer]\nkeys=['k']\n[[route]]\npath='/a'\nguard={public=true,key_ids=['x']}\nhandler={type='static'}\n",
			msg:  "route 0 (GET /a): guard.public cannot be combined with require_auth or key_ids",
		},
		{
			name: "duplicate",
			doc:  "[bearer]\nkeys=['k']\n[[route]]\npath='/a'\nhandler={type='static'}\n[[route]]\npath='a/'\nhandler={type='static'}\n",
			msg:  "route 1 (GET /a): duplicates route 0",
		},
		{
			name: "missing path",
			doc:  "[bearer]\nkeys=['k']\n[[route]]\nhandler={type='static'}\n",
			msg:  "route 0: path is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("[bearer]\nkeys = [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest:")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Routes, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
