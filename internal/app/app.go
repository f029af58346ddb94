package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/trustdot/reputation/internal/config"
	"github.com/trustdot/reputation/internal/event"
	handler "github.com/trustdot/reputation/internal/handler/http"
	"github.com/trustdot/reputation/internal/repository"
	"github.com/trustdot/reputation/internal/repository/postgres"
	redisrepo "github.com/trustdot/reputation/internal/repository/redis"
	"github.com/trustdot/reputation/internal/service"
	"github.com/trustdot/reputation/pkg/breaker"
	"github.com/trustdot/reputation/pkg/database"
	"github.com/trustdot/reputation/pkg/health"
	pkgkafka "github.com/trustdot/reputation/pkg/kafka"
	"github.com/trustdot/reputation/pkg/middleware"
	"github.com/trustdot/reputation/pkg/tracing"
)

const (
	serviceName    = "reputation"
	serviceVersion = "0.1.0"
)

// App wires together all dependencies and runs the reputation service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	scoreRefresh   *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// deps are the live clients the service graph is built on.
type deps struct {
	db        database.DBTX
	redis     redis.Cmdable
	publisher event.Publisher
}

// graph is the built service layer.
type graph struct {
	aggregator *service.Aggregator
	router     http.Handler
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// PostgreSQL
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	d := deps{db: pool}

	// Redis
	if cfg.NeedsRedis() {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rdb
		d.redis = rdb
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	}

	// Kafka
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, a.producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		d.publisher = a.producer
	}

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redis != nil {
		healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
	}

	g := build(cfg, d, healthHandler, logger)

	if cfg.ScoreRefreshEnabled {
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.scoreRefresh = newScoreRefreshConsumer(cfg, g.aggregator, d.redis, a.dlq, logger)
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           g.router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// build assembles repositories, services and the HTTP router over d.
func build(cfg *config.Config, d deps, healthHandler *health.Handler, logger *slog.Logger) graph {
	reviews := postgres.NewReviewRepository(d.db)
	vendors := postgres.NewVendorRepository(d.db)
	upvotes := newUpvoteStore(cfg, d)

	// A nil *event.Producer in the interface would not compare equal to nil.
	var events service.EventPublisher
	if d.publisher != nil {
		events = event.NewProducer(d.publisher, logger)
	}

	aggregator := service.NewAggregator(reviews, vendors, logger)
	upvoteService := service.NewUpvoteService(reviews, upvotes, upvoteBreakerConfig(cfg), events, logger)
	reviewService := service.NewReviewService(reviews, vendors, aggregator, upvoteService, events, logger)
	profileService := service.NewProfileService(vendors, logger)

	router := handler.NewRouter(handler.Services{
		Reviews:    reviewService,
		Upvotes:    upvoteService,
		Profiles:   profileService,
		Aggregator: aggregator,
	}, healthHandler, routerConfig(cfg), logger)

	return graph{aggregator: aggregator, router: router}
}

// newUpvoteStore picks the upvote backend. The redis store requires a
// client; without one it falls back to postgres.
func newUpvoteStore(cfg *config.Config, d deps) repository.UpvoteRepository {
	if cfg.UpvoteStore == config.UpvoteStoreRedis && d.redis != nil {
		return redisrepo.NewUpvoteRepository(d.redis)
	}
	return postgres.NewUpvoteRepository(d.db)
}

func upvoteBreakerConfig(cfg *config.Config) breaker.Config {
	cb := breaker.DefaultConfig("upvote-tally")
	cb.Timeout = time.Duration(cfg.UpvoteBreakerTimeoutSeconds) * time.Second
	return cb
}

func routerConfig(cfg *config.Config) handler.RouterConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	return handler.RouterConfig{
		ServiceName:     serviceName,
		CORS:            cors,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		DefaultPageSize: cfg.ReviewsDefaultPageSize,
		MaxPageSize:     cfg.ReviewsMaxPageSize,
		WriteRateLimit: middleware.RateLimitConfig{
			RPS:   cfg.RateLimitWriteRPS,
			Burst: cfg.RateLimitWriteBurst,

			TrustedProxies: cfg.TrustedProxyCIDRs,
		},
	}
}

// newScoreRefreshConsumer subscribes to review.created and re-runs the
// aggregate recompute. Processed event IDs are kept in Redis for a day.
func newScoreRefreshConsumer(
	cfg *config.Config,
	aggregator *service.Aggregator,
	rdb redis.Cmdable,
	dlq *pkgkafka.DLQProducer,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	if rdb != nil {
		store = pkgkafka.NewRedisIdempotencyStore(rdb, "reputation:events:", 24*time.Hour)
	}

	refresher := event.NewScoreRefresher(aggregator, logger)
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.ScoreRefreshGroup,
		Topic:    event.TopicReviewCreated,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(store, refresher.HandleReviewCreated, logger), dlq, logger)
}

// Run starts the HTTP server and the score refresh consumer (when enabled),
// then blocks until the context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.scoreRefresh != nil {
		g.Go(func() error {
			a.logger.Info("starting score refresh consumer",
				slog.String("topic", event.TopicReviewCreated),
				slog.String("group", a.cfg.ScoreRefreshGroup),
			)
			if err := a.scoreRefresh.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("score refresh consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of drained requests)
// 3. Score refresh consumer and DLQ writer
// 4. Kafka producer
// 5. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.scoreRefresh != nil {
		if err := a.scoreRefresh.Close(); err != nil {
			a.logger.Error("score refresh consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the brokers with exponential backoff
// (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == 2 {
			break
		}
		base := time.Duration(1<<uint(attempt)) * time.Second
		wait := base + time.Duration(float64(base)*0.25*(2*rand.Float64()-1)) // #nosec G404 -- jitter only
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
