package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
input:
  log_path: /var/log/nginx/access.log
  follow: true
output:
  report_path: /tmp/bots.txt
state:
  max_clients: 1000
metrics:
  enabled: true
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/nginx/access.log", cfg.Input.LogPath)
	assert.True(t, cfg.Input.Follow)
	assert.Equal(t, "/tmp/bots.txt", cfg.Output.ReportPath)
	assert.Equal(t, 1000, cfg.State.MaxClients)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultMetricsListen, cfg.Metrics.Listen)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "logging:\n  level: loud\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogPath, cfg.Input.LogPath)
	assert.Equal(t, DefaultReportPath, cfg.Output.ReportPath)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Zero(t, cfg.State.MaxClients)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "input:\n  bogus_key: 1\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "state:\n  max_clients: -1\n"))
	assert.Error(t, err)
}
