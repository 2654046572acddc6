package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-sprint/internal/config"
	"github.com/gokatarajesh/quiz-sprint/internal/host"
	"github.com/gokatarajesh/quiz-sprint/internal/logging"
	"github.com/gokatarajesh/quiz-sprint/internal/metrics"
	"github.com/gokatarajesh/quiz-sprint/internal/play"
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/scoring"
	"github.com/gokatarajesh/quiz-sprint/internal/server"
	"github.com/gokatarajesh/quiz-sprint/internal/session"
	"github.com/gokatarajesh/quiz-sprint/internal/ticket"
	"github.com/gokatarajesh/quiz-sprint/internal/topscore"
	ws "github.com/gokatarajesh/quiz-sprint/pkg/http/ws"
)

// Application aggregates shared infrastructure (stores, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps logger, optional Redis and Postgres, the quiz and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	if cfg.Security.TicketSecret == "" {
		return nil, fmt.Errorf("TICKET_SECRET must be configured")
	}

	redisClient := NewRedisClient(cfg.Redis)

	var pool *pgxpool.Pool
	if cfg.TopScore.Backend == config.BackendPostgres {
		p, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pool = p
	}

	a := &Application{cfg: cfg, logger: logger, pool: pool, redis: redisClient}

	q, err := LoadQuiz(ctx, cfg.Quiz, redisClient, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	store, err := NewTopScoreStore(cfg.TopScore, redisClient, pool)
	if err != nil {
		a.close()
		return nil, err
	}
	logger.Info().Str("backend", cfg.TopScore.Backend).Str("key", cfg.TopScore.Key).Msg("top score store ready")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(registry)

	tickets := ticket.NewManager(ticket.Config{
		Secret: []byte(cfg.Security.TicketSecret),
		TTL:    cfg.Security.TicketTTL,
		Issuer: cfg.Name,
	})

	wsHub := ws.NewHub(logger)
	playHandler := play.NewHandler(q, store, tickets, wsHub, recorder, PlayOptions(cfg.Session), logger)

	a.http = server.NewHTTPServer(cfg, logger, server.Deps{
		Pool:        pool,
		Redis:       redisClient,
		Quiz:        q,
		TopScore:    store,
		TopScoreKey: cfg.TopScore.Key,
		Tickets:     tickets,
		Gatherer:    registry,
		PlayHandler: playHandler.HandleWebSocket,
		Hub:         wsHub,
	})
	return a, nil
}

// NewRedisClient returns nil when no address is configured.
func NewRedisClient(cfg config.Redis) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewPostgresPool opens a pgx pool sized from config.
func NewPostgresPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf("%s pool_max_conns=%d", cfg.DSN(), cfg.MaxConns)
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// LoadQuiz fetches the question set, caching the raw document in Redis when available.
func LoadQuiz(ctx context.Context, cfg config.Quiz, rdb *redis.Client, logger zerolog.Logger) (*quiz.Quiz, error) {
	var cache quiz.DocumentCache
	if rdb != nil {
		cache = quiz.NewRedisCache(rdb, cfg.CacheTTL)
	}
	svc := quiz.NewService(quiz.NewSource(cfg.Source, cfg.FetchTimeout), cache, logger)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	q, err := svc.Load(loadCtx)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	return q, nil
}

// NewTopScoreStore picks the best-score backend.
func NewTopScoreStore(cfg config.TopScore, rdb *redis.Client, pool *pgxpool.Pool) (topscore.Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return topscore.NewMemoryStore(), nil
	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("top score backend redis: no redis client")
		}
		return topscore.NewRedisStore(rdb, cfg.Key), nil
	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("top score backend postgres: no connection pool")
		}
		return topscore.NewPostgresStore(pool, cfg.Key), nil
	default:
		return nil, fmt.Errorf("unknown top score backend %q", cfg.Backend)
	}
}

// PlayOptions maps session config onto core and runner options.
func PlayOptions(cfg config.Session) play.Options {
	return play.Options{
		Session: session.Options{
			Scoring:              scoring.DefaultConfig(),
			ResetStreakOnTimeout: cfg.ResetStreakOnTimeout,
		},
		Runner: host.Options{
			TickInterval:        cfg.TickInterval,
			CelebrationDuration: cfg.CelebrationDuration,
		},
		PongWait: cfg.PongWait,
	}
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		a.close()
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.close()
	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
