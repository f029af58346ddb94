package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"slices"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// isConnectionError reports whether err is a network-level failure worth
// retrying. SQL errors (syntax, constraint) are not.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// RunMigrations applies every *.up.sql file at the root of migrations in
// lexical order, each in its own transaction, recording applied versions in
// schema_migrations. Connection errors are retried with backoff.
func RunMigrations(ctx context.Context, db TxBeginner, migrations fs.FS, logger *slog.Logger) error {
	var err error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if err = migrateOnce(ctx, db, migrations, logger); err == nil || !isConnectionError(err) {
			return err
		}
		if attempt == connectAttempts-1 {
			break
		}
		wait := backoff(attempt)
		logger.Warn("migration hit a connection error, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		if serr := sleepCtx(ctx, wait); serr != nil {
			return fmt.Errorf("run migrations: %w", serr)
		}
	}
	return fmt.Errorf("run migrations after %d attempts: %w", connectAttempts, err)
}

func pendingFiles(migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func migrateOnce(ctx context.Context, db TxBeginner, migrations fs.FS, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	names, err := pendingFiles(migrations)
	if err != nil {
		return err
	}

	for _, name := range names {
		var applied bool
		if err := db.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			logger.Debug("migration already applied", slog.String("version", name))
			continue
		}

		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyMigration(ctx, db, name, string(body)); err != nil {
			return err
		}
		logger.Info("migration applied", slog.String("version", name))
	}
	return nil
}

func applyMigration(ctx context.Context, db TxBeginner, name, body string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx for migration %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, body); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
