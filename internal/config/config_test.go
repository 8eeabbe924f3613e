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
	t.Setenv(configPathEnv, "")
	t.Setenv(chunkSizeEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.Source.TotalQuantity)
	assert.Equal(t, 1000, cfg.Source.ChunkSize)
	assert.Equal(t, 5, cfg.Source.Concurrency)
	assert.Equal(t, 3, cfg.Source.Retry.Attempts)
	assert.Equal(t, 300*time.Millisecond, cfg.Source.Retry.BackoffFactor)
	assert.Equal(t, []int{500, 502, 503, 504}, cfg.Source.Retry.Statuses)
	assert.Equal(t, 1000, cfg.Database.BatchSize)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
source:
  apiUrl: http://source.local/persons
  totalQuantity: 100
  chunkSize: 50
  retry:
    backoffFactor: 10ms
database:
  batchSize: 25
kafka:
  brokers: [broker:9092]
  topic: runs
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(concurrencyEnv, "2")
	t.Setenv(databaseDSNEnv, "postgres://env/db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://source.local/persons", cfg.Source.APIURL)
	assert.Equal(t, 100, cfg.Source.TotalQuantity)
	assert.Equal(t, 50, cfg.Source.ChunkSize)
	assert.Equal(t, 2, cfg.Source.Concurrency)
	assert.Equal(t, 10*time.Millisecond, cfg.Source.Retry.BackoffFactor)
	assert.Equal(t, 3, cfg.Source.Retry.Attempts)
	assert.Equal(t, 25, cfg.Database.BatchSize)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoadRejectsBadInteger(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(chunkSizeEnv, "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), chunkSizeEnv)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"empty url":      func(c *Config) { c.Source.APIURL = "" },
		"zero chunk":     func(c *Config) { c.Source.ChunkSize = 0 },
		"zero workers":   func(c *Config) { c.Source.Concurrency = 0 },
		"negative total": func(c *Config) { c.Source.TotalQuantity = -1 },
		"empty dsn":      func(c *Config) { c.Database.DSN = "" },
		"huge batch":     func(c *Config) { c.Database.BatchSize = 10000 },
		"topic missing":  func(c *Config) { c.Kafka.Brokers = []string{"b:9092"} },
		"negative retry": func(c *Config) { c.Source.Retry.Attempts = -1 },
	}

	require.NoError(t, defaultConfig().Validate())

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
