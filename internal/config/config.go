package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/trustdot/reputation/pkg/config"
	"github.com/trustdot/reputation/pkg/database"
)

// Upvote store kinds.
const (
	UpvoteStorePostgres = "postgres"
	UpvoteStoreRedis    = "redis"
)

// Config holds all configuration for the reputation service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REPUTATION_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"reputation"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"reputation_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"reputation"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Upvotes
	UpvoteStore                 string `env:"UPVOTE_STORE" envDefault:"postgres"`
	UpvoteBreakerTimeoutSeconds int    `env:"UPVOTE_BREAKER_TIMEOUT_SECONDS" envDefault:"30"`

	// Kafka
	KafkaBrokers        []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled       bool     `env:"EVENTS_ENABLED" envDefault:"true"`
	ScoreRefreshEnabled bool     `env:"SCORE_REFRESH_ENABLED" envDefault:"false"`
	ScoreRefreshGroup   string   `env:"SCORE_REFRESH_GROUP" envDefault:"reputation-score-refresh"`

	// Review listing
	ReviewsDefaultPageSize int `env:"REVIEWS_DEFAULT_PAGE_SIZE" envDefault:"6"`
	ReviewsMaxPageSize     int `env:"REVIEWS_MAX_PAGE_SIZE" envDefault:"50"`

	// Per-IP throttle on write endpoints. RPS 0 disables it.
	RateLimitWriteRPS   float64 `env:"RATE_LIMIT_WRITE_RPS" envDefault:"2"`
	RateLimitWriteBurst int     `env:"RATE_LIMIT_WRITE_BURST" envDefault:"20"`

	// Proxies whose forwarding headers identify the client (CIDR notation).
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadDotenv(cfg); err != nil {
		return nil, fmt.Errorf("load reputation config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	switch c.UpvoteStore {
	case UpvoteStorePostgres:
	case UpvoteStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when UPVOTE_STORE=redis")
		}
	default:
		return fmt.Errorf("UPVOTE_STORE must be %q or %q, got %q", UpvoteStorePostgres, UpvoteStoreRedis, c.UpvoteStore)
	}
	if (c.EventsEnabled || c.ScoreRefreshEnabled) && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when events are enabled")
	}
	if c.ReviewsDefaultPageSize < 1 {
		return fmt.Errorf("REVIEWS_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.ReviewsDefaultPageSize)
	}
	if c.ReviewsMaxPageSize < c.ReviewsDefaultPageSize {
		return fmt.Errorf("REVIEWS_MAX_PAGE_SIZE (%d) must not be below REVIEWS_DEFAULT_PAGE_SIZE (%d)",
			c.ReviewsMaxPageSize, c.ReviewsDefaultPageSize)
	}
	if c.UpvoteBreakerTimeoutSeconds < 1 {
		return fmt.Errorf("UPVOTE_BREAKER_TIMEOUT_SECONDS must be at least 1, got %d", c.UpvoteBreakerTimeoutSeconds)
	}
	if c.RateLimitWriteRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_WRITE_RPS must not be negative, got %f", c.RateLimitWriteRPS)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection settings for the pgx pool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// NeedsRedis reports whether any component uses Redis: the redis upvote
// store or the score refresher's idempotency keys.
func (c *Config) NeedsRedis() bool {
	return c.UpvoteStore == UpvoteStoreRedis || c.ScoreRefreshEnabled
}
