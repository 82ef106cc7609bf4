package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, "models", c.Models.Dir)
	assert.Equal(t, ".json", c.Models.Extension)
	assert.Equal(t, "gbrt", c.Training.Algorithm)
	assert.Equal(t, 0.2, c.Training.HoldoutRatio)
	assert.Equal(t, []string{"*"}, c.Server.AllowOrigins)
	assert.Equal(t, 10*time.Minute, c.Cache.TTL)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.Equal(t, 10, c.Cache.Redis.PoolSize)
	assert.Equal(t, 30*time.Second, c.Cache.Redis.PoolTimeout)
}

func TestLoadKeepsExplicitZeroOverDefault(t *testing.T) {
	p := writeConfig(t, `
training:
  holdout_ratio: 0
models:
  dir: /srv/models
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Training.HoldoutRatio)
	assert.Equal(t, "/srv/models", c.Models.Dir)
	assert.Equal(t, 100, c.Training.GBRT.Iterations)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"algorithm":       "training:\n  algorithm: forest\n",
		"holdout":         "training:\n  holdout_ratio: 1.5\n",
		"source":          "datasets:\n  source: s3\n",
		"clickhouse host": "datasets:\n  source: clickhouse\n",
		"kafka brokers":   "kafka:\n  enabled: true\n  brokers: []\n",
		"extension":       "models:\n  extension: json\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FINCAST_MODELS_DIR", "/tmp/models")
	t.Setenv("FINCAST_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/models", c.Models.Dir)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
}

func TestEnvBadPort(t *testing.T) {
	t.Setenv("FINCAST_PORT", "eighty")
	_, err := LoadWithEnv("")
	require.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "../models", c.Models.Dir)
	assert.Equal(t, "models", c.Models.FallbackDir)
	assert.Equal(t, 4, c.Training.Workers)
}
