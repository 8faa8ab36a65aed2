package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeyondidentity/scopedkv/pkg/snapshot"
)

const testPolicy = `base_paths:
  - /core
  - /plugins
rules:
  - prefix: /core
    level: admin
  - prefix: /plugins
    level: read_only
`

// run executes one CLI invocation. Commands share package globals, so CLI
// tests are sequential by construction.
func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	w.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "kv.db")
	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte(testPolicy), 0o644))

	base := []string{"--db", db, "--config", policy}
	cli := func(args ...string) error { return run(t, append(base, args...)...) }

	require.NoError(t, cli("identity", "register", "/core/x.mod", "admin"))
	require.NoError(t, cli("set", "/core/x.mod", "a", "1"))
	require.NoError(t, cli("readonly", "set", "/core/x.mod", "cfg", "on"))

	// The plugin ceiling is read_only; the request clamps and the read-only
	// store stays closed to it.
	require.NoError(t, cli("identity", "register", "/plugins/y.mod", "read_write"))
	require.Error(t, cli("readonly", "set", "/plugins/y.mod", "cfg", "off"))

	out := captureStdout(t, func() {
		require.NoError(t, cli("get", "/core/x.mod", "a"))
	})
	assert.Equal(t, "1", strings.TrimSpace(out))

	out = captureStdout(t, func() {
		require.NoError(t, cli("readonly", "get", "/plugins/y.mod", "cfg"))
	})
	assert.Equal(t, "on", strings.TrimSpace(out))

	// State survives the process through the database.
	st, err := snapshot.Open(db)
	require.NoError(t, err)
	defer st.Close()
	snap, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "1", snap.Namespaces["/core/x.mod"]["a"])
	assert.Equal(t, "on", snap.ReadOnly["cfg"])
	assert.Len(t, snap.Credentials, 2)

	entries, err := st.AuditEntries(0)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestResolveAgainstPolicy(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "kv.db")
	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte(testPolicy), 0o644))

	out := captureStdout(t, func() {
		require.NoError(t, run(t, "--db", db, "--config", policy, "resolve", "/core//./boot.mod"))
	})
	assert.Contains(t, out, "/core/boot.mod")
	assert.Contains(t, out, "admin")

	require.Error(t, run(t, "--db", db, "--config", policy, "resolve", "/plugins/../core/x"))
}

func TestManifestFlow(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "manifest.key")
	pub := filepath.Join(dir, "manifest.pub")

	require.NoError(t, run(t, "manifest", "keygen", "--key", key, "--pub", pub))

	token := strings.TrimSpace(captureStdout(t, func() {
		require.NoError(t, run(t, "manifest", "issue", "--key", key, "--issuer", "ci", "/plugins/y.mod"))
	}))
	require.NotEmpty(t, token)

	identity := strings.TrimSpace(captureStdout(t, func() {
		require.NoError(t, run(t, "manifest", "verify", "--pub", pub, "--issuer", "ci", token))
	}))
	assert.Equal(t, "/plugins/y.mod", identity)

	require.Error(t, run(t, "manifest", "verify", "--pub", pub, "--issuer", "someone-else", token))
}
