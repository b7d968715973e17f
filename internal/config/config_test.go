package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10, cfg.RankLimit)
	assert.Equal(t, 50, cfg.JobScoreThreshold)
	assert.Equal(t, 30, cfg.MentorScoreThreshold)
	assert.Equal(t, 3, cfg.PersistMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.ReEvalPollInterval)
	assert.Equal(t, 30*time.Second, cfg.RecomputeCooldown)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9999")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("REEVAL_BATCH_SIZE", "25")
	t.Setenv("RECOMPUTE_COOLDOWN", "2m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 25, cfg.ReEvalBatchSize)
	assert.Equal(t, 2*time.Minute, cfg.RecomputeCooldown)
	assert.True(t, cfg.IsProd())
	assert.False(t, cfg.IsTest())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("REEVAL_POLL_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
}
