package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-sprint/internal/app"
	"github.com/gokatarajesh/quiz-sprint/internal/cli"
	"github.com/gokatarajesh/quiz-sprint/internal/config"
	"github.com/gokatarajesh/quiz-sprint/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// Logs go to stderr at warn and above so they do not interleave with the game.
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	rdb := app.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	q, err := app.LoadQuiz(ctx, cfg.Quiz, rdb, logger)
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if cfg.TopScore.Backend == config.BackendPostgres {
		if pool, err = app.NewPostgresPool(ctx, cfg.Postgres); err != nil {
			return err
		}
		defer pool.Close()
	}
	store, err := app.NewTopScoreStore(cfg.TopScore, rdb, pool)
	if err != nil {
		return err
	}

	opts := app.PlayOptions(cfg.Session)
	_, err = cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		Quiz:    q,
		Store:   store,
		Session: opts.Session,
		Runner:  opts.Runner,
		Logger:  logger,
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
