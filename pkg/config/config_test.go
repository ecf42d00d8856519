package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func TestDefaultsMatchProductThresholds(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, 30, cfg.Levels.MasterChapters)
	assert.Equal(t, 80.0, cfg.Levels.MasterPct)
	assert.Equal(t, 10, cfg.Levels.AdvancedChapters)
	assert.Equal(t, 40.0, cfg.Levels.AdvancedPct)
	assert.Equal(t, 3, cfg.Levels.IntermediateChapters)
	assert.Equal(t, 15.0, cfg.Levels.IntermediatePct)

	assert.Equal(t, 50, cfg.Recommendation.BeginnerSection30)
	assert.Equal(t, 30, cfg.Recommendation.CompletedPenalty)
	assert.Equal(t, 60, cfg.Recommendation.TierHighAbove)
	assert.Equal(t, 30, cfg.Recommendation.TierMediumAbove)
	assert.Equal(t, 10, cfg.Recommendation.RecentWindow)
	assert.Equal(t, 30, cfg.Recommendation.ReviewAfterDays)

	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Recommendation.CacheTTL)
	assert.Equal(t, 200*time.Millisecond, cfg.Batch.RetryDelay)
	assert.Equal(t, "02:00", cfg.Nightly.At)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LEVEL_MASTER_CHAPTERS", "25")
	t.Setenv("PROGRESS_CACHE_TTL", "not-a-duration")
	t.Setenv("RECOMMEND_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(newTestViper())

	assert.Equal(t, 25, cfg.Levels.MasterChapters)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.Recommendation.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, cfg.Location())

	var nilCfg *Config
	assert.Equal(t, time.UTC, nilCfg.Location())
}
