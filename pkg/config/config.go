package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database       DatabaseConfig
	Redis          RedisConfig
	CORS           CORSConfig
	Log            LogConfig
	Cache          CacheConfig
	Levels         LevelConfig
	Recommendation RecommendationConfig
	Batch          BatchConfig
	Queue          QueueConfig
	Nightly        NightlyConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	// ConnectRetries is how many extra pings are attempted at startup.
	ConnectRetries    int
	ConnectRetryDelay time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs caching of derived progress payloads.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// LevelConfig holds the level classification thresholds. Each level is reached
// when either the completed chapter count or the overall percentage is met.
type LevelConfig struct {
	MasterChapters       int
	MasterPct            float64
	AdvancedChapters     int
	AdvancedPct          float64
	IntermediateChapters int
	IntermediatePct      float64
}

// RecommendationConfig tunes the chapter scoring weights and tiers.
type RecommendationConfig struct {
	DefaultLimit    int
	RecentWindow    int
	ReviewAfterDays int
	// CacheTTL bounds how long a ranking is served after records change
	// outside a recompute.
	CacheTTL time.Duration

	BeginnerSection30    int
	BeginnerShortChapter int
	IntermediateMedium   int
	IntermediateLateJuz  int
	AdvancedUntouched    int
	AdvancedLongChapter  int
	Continuation         int
	RecentSection        int
	ReviewDue            int
	CompletedPenalty     int
	OriginPreference     int
	TierHighAbove        int
	TierMediumAbove      int
}

// BatchConfig controls administrative bulk recomputes.
type BatchConfig struct {
	Concurrency int
	MaxRetries  int
	RetryDelay  time.Duration
}

// QueueConfig sizes the asynchronous recompute worker pool.
type QueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NightlyConfig toggles the scheduled full recompute.
type NightlyConfig struct {
	Enabled bool
	At      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		ConnectRetries:    v.GetInt("DB_CONNECT_RETRIES"),
		ConnectRetryDelay: parseDuration(v.GetString("DB_CONNECT_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("PROGRESS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Levels = LevelConfig{
		MasterChapters:       v.GetInt("LEVEL_MASTER_CHAPTERS"),
		MasterPct:            v.GetFloat64("LEVEL_MASTER_PCT"),
		AdvancedChapters:     v.GetInt("LEVEL_ADVANCED_CHAPTERS"),
		AdvancedPct:          v.GetFloat64("LEVEL_ADVANCED_PCT"),
		IntermediateChapters: v.GetInt("LEVEL_INTERMEDIATE_CHAPTERS"),
		IntermediatePct:      v.GetFloat64("LEVEL_INTERMEDIATE_PCT"),
	}

	cfg.Recommendation = RecommendationConfig{
		DefaultLimit:         v.GetInt("RECOMMEND_DEFAULT_LIMIT"),
		RecentWindow:         v.GetInt("RECOMMEND_RECENT_WINDOW"),
		ReviewAfterDays:      v.GetInt("REVIEW_AFTER_DAYS"),
		CacheTTL:             parseDuration(v.GetString("RECOMMEND_CACHE_TTL"), 2*time.Minute),
		BeginnerSection30:    v.GetInt("SCORE_BEGINNER_SECTION30"),
		BeginnerShortChapter: v.GetInt("SCORE_BEGINNER_SHORT"),
		IntermediateMedium:   v.GetInt("SCORE_INTERMEDIATE_MEDIUM"),
		IntermediateLateJuz:  v.GetInt("SCORE_INTERMEDIATE_LATE_SECTIONS"),
		AdvancedUntouched:    v.GetInt("SCORE_ADVANCED_UNTOUCHED"),
		AdvancedLongChapter:  v.GetInt("SCORE_ADVANCED_LONG"),
		Continuation:         v.GetInt("SCORE_CONTINUATION"),
		RecentSection:        v.GetInt("SCORE_RECENT_SECTION"),
		ReviewDue:            v.GetInt("SCORE_REVIEW_DUE"),
		CompletedPenalty:     v.GetInt("SCORE_COMPLETED_PENALTY"),
		OriginPreference:     v.GetInt("SCORE_ORIGIN_PREFERENCE"),
		TierHighAbove:        v.GetInt("TIER_HIGH_ABOVE"),
		TierMediumAbove:      v.GetInt("TIER_MEDIUM_ABOVE"),
	}

	cfg.Batch = BatchConfig{
		Concurrency: v.GetInt("BATCH_CONCURRENCY"),
		MaxRetries:  v.GetInt("BATCH_MAX_RETRIES"),
		RetryDelay:  parseDuration(v.GetString("BATCH_RETRY_DELAY"), 200*time.Millisecond),
	}

	cfg.Queue = QueueConfig{
		Workers:    v.GetInt("QUEUE_WORKERS"),
		MaxRetries: v.GetInt("QUEUE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("QUEUE_RETRY_DELAY"), time.Second),
	}

	cfg.Nightly = NightlyConfig{
		Enabled: v.GetBool("ENABLE_NIGHTLY_RECOMPUTE"),
		At:      v.GetString("NIGHTLY_RECOMPUTE_AT"),
	}

	return cfg
}

// Location resolves the configured timezone used for calendar-day math.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hifz_progress")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("DB_CONNECT_RETRY_DELAY", "2s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("PROGRESS_CACHE_TTL", "10m")

	v.SetDefault("LEVEL_MASTER_CHAPTERS", 30)
	v.SetDefault("LEVEL_MASTER_PCT", 80)
	v.SetDefault("LEVEL_ADVANCED_CHAPTERS", 10)
	v.SetDefault("LEVEL_ADVANCED_PCT", 40)
	v.SetDefault("LEVEL_INTERMEDIATE_CHAPTERS", 3)
	v.SetDefault("LEVEL_INTERMEDIATE_PCT", 15)

	v.SetDefault("RECOMMEND_DEFAULT_LIMIT", 10)
	v.SetDefault("RECOMMEND_RECENT_WINDOW", 10)
	v.SetDefault("RECOMMEND_CACHE_TTL", "2m")
	v.SetDefault("REVIEW_AFTER_DAYS", 30)
	v.SetDefault("SCORE_BEGINNER_SECTION30", 50)
	v.SetDefault("SCORE_BEGINNER_SHORT", 30)
	v.SetDefault("SCORE_INTERMEDIATE_MEDIUM", 40)
	v.SetDefault("SCORE_INTERMEDIATE_LATE_SECTIONS", 20)
	v.SetDefault("SCORE_ADVANCED_UNTOUCHED", 30)
	v.SetDefault("SCORE_ADVANCED_LONG", 25)
	v.SetDefault("SCORE_CONTINUATION", 40)
	v.SetDefault("SCORE_RECENT_SECTION", 15)
	v.SetDefault("SCORE_REVIEW_DUE", 20)
	v.SetDefault("SCORE_COMPLETED_PENALTY", 30)
	v.SetDefault("SCORE_ORIGIN_PREFERENCE", 10)
	v.SetDefault("TIER_HIGH_ABOVE", 60)
	v.SetDefault("TIER_MEDIUM_ABOVE", 30)

	v.SetDefault("BATCH_CONCURRENCY", 4)
	v.SetDefault("BATCH_MAX_RETRIES", 2)
	v.SetDefault("BATCH_RETRY_DELAY", "200ms")

	v.SetDefault("QUEUE_WORKERS", 2)
	v.SetDefault("QUEUE_RETRIES", 3)
	v.SetDefault("QUEUE_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_NIGHTLY_RECOMPUTE", false)
	v.SetDefault("NIGHTLY_RECOMPUTE_AT", "02:00")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
