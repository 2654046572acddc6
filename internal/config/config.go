package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Top score backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-sprint"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Quiz     Quiz
	TopScore TopScore
	Postgres Postgres
	Redis    Redis
	Security Security
	Session  Session
}

// Quiz locates the question set.
type Quiz struct {
	Source       string        `env:"QUIZ_SOURCE" envDefault:"configs/quiz.json"`
	FetchTimeout time.Duration `env:"QUIZ_FETCH_TIMEOUT" envDefault:"5s"`
	CacheTTL     time.Duration `env:"QUIZ_CACHE_TTL" envDefault:"5m"`
}

// TopScore selects where the best score lives.
type TopScore struct {
	Backend string `env:"TOP_SCORE_BACKEND" envDefault:"memory"`
	Key     string `env:"TOP_SCORE_KEY" envDefault:"topScore"`
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"4"`
}

// DSN renders a libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache + best-score configuration. An empty Addr disables Redis.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
}

// Security stores secrets for signing session tickets.
type Security struct {
	TicketSecret string        `env:"TICKET_SECRET"`
	TicketTTL    time.Duration `env:"TICKET_TTL" envDefault:"10m"`
}

// Session groups host-side gameplay timing.
type Session struct {
	TickInterval         time.Duration `env:"SESSION_TICK_INTERVAL" envDefault:"1s"`
	CelebrationDuration  time.Duration `env:"SESSION_CELEBRATION_DURATION" envDefault:"2s"`
	ResetStreakOnTimeout bool          `env:"SESSION_RESET_STREAK_ON_TIMEOUT" envDefault:"false"`
	PongWait             time.Duration `env:"SESSION_PONG_WAIT" envDefault:"60s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *App) Validate() error {
	switch c.TopScore.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("TOP_SCORE_BACKEND=redis requires REDIS_ADDR")
		}
	case BackendPostgres:
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			return fmt.Errorf("TOP_SCORE_BACKEND=postgres requires PG_USER and PG_DATABASE")
		}
	default:
		return fmt.Errorf("unknown TOP_SCORE_BACKEND %q", c.TopScore.Backend)
	}
	if c.Quiz.Source == "" {
		return fmt.Errorf("QUIZ_SOURCE must be set")
	}
	if c.Session.TickInterval <= 0 {
		return fmt.Errorf("SESSION_TICK_INTERVAL must be positive")
	}
	return nil
}
