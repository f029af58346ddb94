// Command seed populates the reputation database with deterministic vendors
// and reviews, then recomputes every vendor aggregate.
//
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/trustdot/reputation/internal/config"
	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository/postgres"
	"github.com/trustdot/reputation/internal/service"
	pkgconfig "github.com/trustdot/reputation/pkg/config"
	"github.com/trustdot/reputation/pkg/database"
	"github.com/trustdot/reputation/pkg/logger"
)

const batchSize = 500

type seedConfig struct {
	Vendors             int    `env:"SEED_VENDORS" envDefault:"200"`
	MaxReviewsPerVendor int    `env:"SEED_MAX_REVIEWS_PER_VENDOR" envDefault:"120"`
	RandSeed            uint64 `env:"SEED_RAND" envDefault:"42"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var sc seedConfig
	if err := pkgconfig.Load(&sc); err != nil {
		slog.Error("failed to load seed config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("reputation-seed", cfg.LogLevel)
	if err := run(context.Background(), cfg, sc, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, sc seedConfig, log *slog.Logger) error {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	now := time.Now().UTC()
	rng := rand.New(rand.NewPCG(sc.RandSeed, sc.RandSeed^0x9e3779b97f4a7c15)) // #nosec G404 -- fixture data
	vendors := generateVendors(rng, sc.Vendors, now)

	if err := insertVendors(ctx, pool, vendors); err != nil {
		return err
	}
	log.Info("vendors inserted", slog.Int("count", len(vendors)))

	var reviews []domain.Review
	for i, v := range vendors {
		reviews = append(reviews, generateReviews(rng, v, i, sc.MaxReviewsPerVendor, now)...)
	}
	if err := insertReviews(ctx, pool, reviews); err != nil {
		return err
	}
	log.Info("reviews inserted", slog.Int("count", len(reviews)))

	aggregator := service.NewAggregator(postgres.NewReviewRepository(pool), postgres.NewVendorRepository(pool), log)
	failed := 0
	for _, v := range vendors {
		if _, err := aggregator.RecomputeAggregate(ctx, v.ID); err != nil {
			failed++
			log.Warn("recompute failed", slog.String("vendor_id", v.ID), slog.String("error", err.Error()))
		}
	}
	log.Info("seed complete",
		slog.Int("vendors", len(vendors)),
		slog.Int("reviews", len(reviews)),
		slog.Int("recompute_failures", failed),
	)
	return nil
}

// valuesClause renders "($1, $2), ($3, $4)" for rows of cols placeholders.
func valuesClause(rows, cols int) string {
	var sb strings.Builder
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", r*cols+c+1)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// insertBatched runs prefix+VALUES+suffix once per batch of rows.
func insertBatched(ctx context.Context, db database.DBTX, prefix, suffix string, cols int, rows [][]any) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		args := make([]any, 0, (end-start)*cols)
		for _, row := range rows[start:end] {
			args = append(args, row...)
		}
		stmt := prefix + " VALUES " + valuesClause(end-start, cols) + " " + suffix
		if _, err := db.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func insertVendors(ctx context.Context, db database.DBTX, vendors []seedVendor) error {
	rows := make([][]any, len(vendors))
	for i, v := range vendors {
		rows[i] = []any{v.ID, v.BusinessName, v.ServiceType, v.CreatedAt, v.CreatedAt}
	}
	return insertBatched(ctx, db,
		"INSERT INTO vendor_profiles (id, business_name, service_type, created_at, updated_at)",
		"ON CONFLICT (id) DO NOTHING", 5, rows)
}

func insertReviews(ctx context.Context, db database.DBTX, reviews []domain.Review) error {
	rows := make([][]any, len(reviews))
	for i, r := range reviews {
		rows[i] = []any{r.ID, r.VendorID, r.Rating, r.Comment, r.AuthorLabel, r.ImageRef, r.CreatedAt}
	}
	return insertBatched(ctx, db,
		"INSERT INTO reviews (id, vendor_id, rating, comment, author_label, image_ref, created_at)",
		"ON CONFLICT (id) DO NOTHING", 7, rows)
}
