package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.Overall)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Write)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Pool)
	assert.Equal(t, ProviderMock, cfg.Model.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AGENTRELAY_HOST", "10.0.0.1")
	t.Setenv("AGENTRELAY_REPORT_URL", "http://writer:9000")
	t.Setenv("AGENTRELAY_TIMEOUT_MS", "30000")
	t.Setenv("AGENTRELAY_CONNECT_TIMEOUT_MS", "not-a-number")
	t.Setenv("AGENTRELAY_LOG_LEVEL", "DEBUG")
	t.Setenv("AGENTRELAY_MODEL_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "10.0.0.1", cfg.Host)
	assert.Equal(t, "http://writer:9000", cfg.Endpoints.Report)
	assert.Empty(t, cfg.Endpoints.Research)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Overall)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "sk-test", cfg.Model.OpenAIAPIKey)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentrelay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: 0.0.0.0
endpoints:
  research: http://research:10031/
timeouts:
  overall: 45s
  pool: 2s
log:
  format: json
model:
  provider: anthropic
  name: claude-3-5-haiku-latest
`), 0o600))
	t.Setenv("AGENTRELAY_LOG_LEVEL", "warn")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "http://research:10031/", cfg.Endpoints.Research)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Overall)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Pool)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model.Name)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  provider: llama\n"), 0o600))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, `unknown model provider "llama"`)

	require.NoError(t, os.WriteFile(path, []byte("timeouts: [1, 2"), 0o600))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "parse config")
}
