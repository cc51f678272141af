package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheck_ExampleManifest(t *testing.T) {
	out, err := run(t, "check", "--manifest", "../../../manifest.toml")
	require.NoError(t, err)

	assert.Contains(t, out, "placement: onRequest")
	assert.Contains(t, out, "key: "+bearer.KeyID("key"))
	assert.Contains(t, out, "inproc:authenticated")
	assert.Contains(t, out, "public")
}

func TestCheck_KeyIDsAreDeduplicated(t *testing.T) {
	dir := t.TempDir()
	keys := filepath.Join(dir, "keys")
	require.NoError(t, os.WriteFile(keys, []byte("key\nother\n"), 0o600))

	path := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[bearer]
keys = ["key"]
keys_file = "`+filepath.ToSlash(keys)+`"

[[route]]
path = "/foo"
handler = { type = "inproc", name = "authenticated" }
`), 0o600))

	out, err := run(t, "check", "--manifest", path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "key: "+bearer.KeyID("key")))
	assert.Equal(t, 1, strings.Count(out, "key: "+bearer.KeyID("other")))
}

func TestCheck_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "check", "--manifest", filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte(`
[bearer]
keys = ["key"]
hook = "preHandler"

[[route]]
path = "/foo"
handler = { type = "inproc", name = "authenticated" }
`), 0o600))
	_, err = run(t, "check", "--manifest", bad)
	assert.ErrorIs(t, err, bearer.ErrInvalidHookPlacement)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte(`
[bearer]
keys = ["key"]

[[route]]
path = "/foo"
handler = { type = "inproc", name = "nope" }
`), 0o600))
	_, err = run(t, "check", "--manifest", unknown)
	assert.ErrorContains(t, err, `inproc handler "nope" not registered`)
}
