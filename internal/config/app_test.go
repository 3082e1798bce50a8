package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig_MissingFile_ReturnsDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), cfg)
}

func TestLoadAppConfig_PartialFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_records: 10000
llm_provider: anthropic
rate_limits:
  arxiv:
    requests_per_second: 1
    burst: 1
`), 0o644))

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.MaxRecords)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, DefaultAppConfig().RefreshIntervalMinutes, cfg.RefreshIntervalMinutes)
	require.Contains(t, cfg.RateLimits, "arxiv")
	assert.Equal(t, 1.0, cfg.RateLimits["arxiv"].RequestsPerSecond)
}

func TestLoadCredentials_MissingEnvFile_DoesNotPanicAndReadsProcessEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	creds := LoadCredentials(filepath.Join(t.TempDir(), ".env"))
	assert.Equal(t, "test-key", creds.AnthropicAPIKey)
	assert.Empty(t, creds.OpenAIAPIKey)
}
