package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

const sampleConfig = `
base_paths:
  - /core
  - /plugins
rules:
  - prefix: /core
    level: admin
  - prefix: /plugins
    level: read_only
default_level: read_only
escalation_policy: reject
`

func TestParseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"/core", "/plugins"}, cfg.Resolver.BasePaths)
	assert.Equal(t, access.ReadOnly, cfg.Resolver.DefaultLevel)
	assert.Equal(t, EscalationReject, cfg.Escalation)
	require.Len(t, cfg.Resolver.Rules, 2)
	assert.Equal(t, access.Rule{Prefix: "/core", Level: access.Admin}, cfg.Resolver.Rules[0])
	assert.Equal(t, access.Rule{Prefix: "/plugins", Level: access.ReadOnly}, cfg.Resolver.Rules[1])

	// The parsed config constructs a working manager.
	mgr, err := NewManager(cfg)
	require.NoError(t, err)
	cred, err := mgr.Register("/plugins/y.mod", access.Admin)
	require.NoError(t, err)
	assert.Equal(t, access.ReadOnly, cred.Level)
}

func TestParseConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig([]byte("base_paths: [/core]\n"))
	require.NoError(t, err)
	assert.Equal(t, access.ReadOnly, cfg.Resolver.DefaultLevel)
	assert.Equal(t, EscalationReject, cfg.Escalation)
	assert.Empty(t, cfg.Resolver.Rules)
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "invalid yaml", in: "base_paths: ["},
		{name: "unknown level", in: "base_paths: [/core]\ndefault_level: root\n"},
		{name: "unknown rule level", in: "base_paths: [/core]\nrules:\n  - prefix: /core\n    level: superuser\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.in))
			require.Error(t, err)
			assert.Equal(t, access.ErrCodeBadConfig, access.ErrorCode(err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scopedkv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/core", "/plugins"}, cfg.Resolver.BasePaths)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
