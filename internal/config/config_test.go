package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CORPQUERY_CONFIG", "")
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 1, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 5, cfg.Pipeline.MaxExtraSources)
	assert.Equal(t, 5, cfg.Providers.Wikipedia.TopK)
	assert.Equal(t, "https://api.tavily.com", cfg.Providers.SearchA.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpquery.yaml")
	data := []byte(`
model:
  name: gpt-4o
  timeout: 15s
pipeline:
  max_retries: 2
providers:
  search_b:
    max_results: 3
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("CORPQUERY_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 15*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 3, cfg.Providers.SearchB.MaxResults)
	// Untouched keys keep defaults.
	assert.Equal(t, 5, cfg.Providers.SearchA.MaxResults)
}

func TestLoadConventionalKeysWin(t *testing.T) {
	t.Setenv("CORPQUERY_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "tvly-test")
	t.Setenv("SERPER_API_KEY", "serper-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "tvly-test", cfg.Providers.SearchA.APIKey)
	assert.Equal(t, "serper-test", cfg.Providers.SearchB.APIKey)
}
