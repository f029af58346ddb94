package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPostgresConfig returns pool defaults for the reputation database.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "reputation",
		Password:        "reputation_secret",
		DBName:          "reputation",
		SSLMode:         "disable",
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

const (
	connectAttempts = 3
	backoffBase     = time.Second
	backoffJitter   = 0.25
)

// backoff returns base<<attempt with +/-25% jitter (1s, 2s, 4s nominal).
func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := backoffBase << attempt
	spread := float64(d) * backoffJitter * (2*rand.Float64() - 1) // #nosec G404 -- jitter only
	return d + time.Duration(spread)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewPostgresPool opens a pgx pool and pings it, retrying startup failures
// with exponential backoff. logger may be nil.
func NewPostgresPool(ctx context.Context, cfg *PostgresConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		pool, err := connect(ctx, poolConfig)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt == connectAttempts-1 {
			break
		}
		wait := backoff(attempt)
		if logger != nil {
			logger.Warn("postgres not reachable, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", connectAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
	}

	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", connectAttempts, lastErr)
}

func connect(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
