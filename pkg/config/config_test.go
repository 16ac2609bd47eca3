package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedscope/pkg/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, `
server:
  listen: ":9090"
  timeout: 45s

sources:
  google_play_app_id: com.example.app
  app_store_app_id: "123456"
  app_store_pages: 3
  synthetic_count: 50
  cache_ttl: 30m

llm:
  endpoint: https://api.groq.com/openai/v1
  api_key: secret
  model: llama-3.3-70b-versatile
  classification:
    batch_size: 10
    max_concurrent: 2

engine:
  top_topics: 5
  bucket_width: week
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "com.example.app", cfg.Sources.GooglePlayAppID)
		assert.Equal(t, 3, cfg.Sources.AppStorePages)
		assert.Equal(t, 30*time.Minute, cfg.Sources.CacheTTL)
		assert.Equal(t, "secret", cfg.LLM.APIKey)
		assert.True(t, cfg.LLM.Enabled())
		assert.Equal(t, 10, cfg.LLM.Classification.BatchSize)
		assert.Equal(t, 5, cfg.Engine.TopTopics)
		assert.Equal(t, domain.BucketWeek, cfg.Engine.BucketWidth)
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfig(t, "server:\n  listen: \":7070\"\n")
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":7070", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "com.whatsapp", cfg.Sources.GooglePlayAppID)
		assert.Equal(t, "310633997", cfg.Sources.AppStoreAppID)
		assert.Equal(t, 5, cfg.Sources.AppStorePages)
		assert.Equal(t, 200, cfg.Sources.SyntheticCount)
		assert.Equal(t, 2*time.Hour, cfg.Sources.CacheTTL)
		assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
		assert.Equal(t, 5, cfg.LLM.Classification.BatchSize)
		assert.Equal(t, 3, cfg.LLM.Classification.MaxConcurrent)
		assert.Equal(t, 2*time.Second, cfg.LLM.Classification.RateLimit)
		assert.False(t, cfg.LLM.Enabled())
		assert.Equal(t, 8, cfg.Engine.TopTopics)
		assert.Equal(t, 8, cfg.Engine.TopBugs)
		assert.Equal(t, 6, cfg.Engine.TopFeatures)
		assert.Equal(t, 2, cfg.Engine.LowRatingThreshold)
		assert.InDelta(t, 0.05, cfg.Engine.TrendDeadBand, 0.0001)
		assert.Equal(t, domain.BucketDay, cfg.Engine.BucketWidth)
	})

	t.Run("environment variables expanded", func(t *testing.T) {
		t.Setenv("TEST_FEEDSCOPE_KEY", "expanded-key")
		path := writeConfig(t, `
llm:
  endpoint: https://api.example.com/v1
  api_key: ${TEST_FEEDSCOPE_KEY}
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "expanded-key", cfg.LLM.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [not a map")
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("api key without endpoint rejected", func(t *testing.T) {
		path := writeConfig(t, "llm:\n  api_key: secret\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.endpoint is required")
	})

	t.Run("invalid bucket width rejected", func(t *testing.T) {
		path := writeConfig(t, "engine:\n  bucket_width: month\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket_width")
	})

	t.Run("low rating threshold out of range", func(t *testing.T) {
		path := writeConfig(t, "engine:\n  low_rating_threshold: 9\n")
		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.False(t, cfg.LLM.Enabled())

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":8080", listen)
	assert.Equal(t, 30*time.Second, timeout)

	assert.Equal(t, cfg.LLM, cfg.GetLLMConfig())
	assert.Equal(t, cfg.Sources, cfg.GetSourcesConfig())
	assert.Equal(t, cfg.Engine, cfg.GetEngineConfig())
}
