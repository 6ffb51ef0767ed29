package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "catalogue:\n  path: /etc/complyd/catalogue.yaml\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9070, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Orchestrator.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.GateTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Catalogue.WatchReload)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8088
orchestrator:
  max_concurrent: 4
  gate_timeout: 2s
catalogue:
  path: /tmp/catalogue.yaml
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Orchestrator.MaxConcurrent)
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.GateTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8088\ncatalogue:\n  path: /tmp/catalogue.yaml\n")
	t.Setenv("COMPLYD_SERVER_PORT", "9999")
	t.Setenv("COMPLYD_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingCataloguePath(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8088\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalogue.path")
}

func TestLoad_SemanticRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
catalogue:
  path: /tmp/catalogue.yaml
semantic:
  enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "semantic.base_url")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
