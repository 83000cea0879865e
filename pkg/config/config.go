package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Items    ItemsConfig
	Matching MatchingConfig
	Sweep    SweepConfig
	Exports  ExportsConfig
	Docs     DocsConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ItemsConfig governs report defaults.
type ItemsConfig struct {
	DefaultTTL time.Duration
}

// MatchingConfig carries the engine constants. They are read once at
// startup and injected into the scorer and matcher at construction; no
// call site re-declares them.
type MatchingConfig struct {
	MinScore       int
	CategoryWeight int
	LocationWeight int
	KeywordWeight  int
	MaxMatches     int
	KeywordLimit   int

	WorkerConcurrency int
	WorkerRetries     int

	CacheEnabled bool
	PoolCacheTTL time.Duration
}

// SweepConfig governs the background expiry sweep.
type SweepConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
}

// ExportsConfig configures asynchronous report exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	ResultTTL         time.Duration
	PageSize          int
	WorkerConcurrency int
	WorkerRetries     int
}

// DocsConfig toggles the swagger UI outside production.
type DocsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Items = ItemsConfig{
		DefaultTTL: parseDuration(v.GetString("ITEMS_DEFAULT_TTL"), 60*24*time.Hour),
	}

	cfg.Matching = MatchingConfig{
		MinScore:          v.GetInt("MATCH_MIN_SCORE"),
		CategoryWeight:    v.GetInt("MATCH_CATEGORY_WEIGHT"),
		LocationWeight:    v.GetInt("MATCH_LOCATION_WEIGHT"),
		KeywordWeight:     v.GetInt("MATCH_KEYWORD_WEIGHT"),
		MaxMatches:        v.GetInt("MATCH_MAX_PER_PASS"),
		KeywordLimit:      v.GetInt("MATCH_KEYWORD_LIMIT"),
		WorkerConcurrency: v.GetInt("MATCH_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("MATCH_WORKER_RETRIES"),
		CacheEnabled:      v.GetBool("MATCH_POOL_CACHE_ENABLED"),
		PoolCacheTTL:      parseDuration(v.GetString("MATCH_POOL_CACHE_TTL"), 30*time.Second),
	}

	cfg.Sweep = SweepConfig{
		Enabled:   v.GetBool("SWEEP_ENABLED"),
		Interval:  parseDuration(v.GetString("SWEEP_INTERVAL"), time.Hour),
		BatchSize: v.GetInt("SWEEP_BATCH_SIZE"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		ResultTTL:         parseDuration(v.GetString("EXPORTS_RESULT_TTL"), 24*time.Hour),
		PageSize:          v.GetInt("EXPORTS_PAGE_SIZE"),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reunite")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "reunite-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ITEMS_DEFAULT_TTL", "1440h")

	v.SetDefault("MATCH_MIN_SCORE", 50)
	v.SetDefault("MATCH_CATEGORY_WEIGHT", 40)
	v.SetDefault("MATCH_LOCATION_WEIGHT", 30)
	v.SetDefault("MATCH_KEYWORD_WEIGHT", 30)
	v.SetDefault("MATCH_MAX_PER_PASS", 3)
	v.SetDefault("MATCH_KEYWORD_LIMIT", 20)
	v.SetDefault("MATCH_WORKER_CONCURRENCY", 2)
	v.SetDefault("MATCH_WORKER_RETRIES", 3)
	v.SetDefault("MATCH_POOL_CACHE_ENABLED", false)
	v.SetDefault("MATCH_POOL_CACHE_TTL", "30s")

	v.SetDefault("SWEEP_ENABLED", true)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_BATCH_SIZE", 200)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_RESULT_TTL", "24h")
	v.SetDefault("EXPORTS_PAGE_SIZE", 100)
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_DOCS", false)
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
