package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-sprint/internal/config"
	"github.com/gokatarajesh/quiz-sprint/internal/logging"
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/ticket"
	"github.com/gokatarajesh/quiz-sprint/internal/topscore"
	httperrors "github.com/gokatarajesh/quiz-sprint/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-sprint/pkg/http/ws"
)

// Deps collects what the routes need. Pool and Redis are optional and only
// pinged when set.
type Deps struct {
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Quiz        *quiz.Quiz
	TopScore    topscore.Store
	TopScoreKey string
	Tickets     *ticket.Manager
	Gatherer    prometheus.Gatherer
	PlayHandler http.HandlerFunc
	Hub         *ws.Hub
}

// NewHTTPServer wires the API routes onto an http.Server.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewMux(logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewMux builds the route table.
func NewMux(logger zerolog.Logger, deps Deps) *http.ServeMux {
	logger = logger.With().Str("component", "http").Logger()
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, deps.Pool, deps.Redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("/v1/quiz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httperrors.RespondMethodNotAllowed(w, http.MethodGet)
			return
		}
		if deps.Quiz == nil {
			httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeServiceUnavailable, "quiz not loaded")
			return
		}
		withQuestions := r.URL.Query().Get("include") == "questions"
		writeJSON(w, http.StatusOK, deps.Quiz.Public(withQuestions))
	})

	mux.HandleFunc("/v1/scores/top", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httperrors.RespondMethodNotAllowed(w, http.MethodGet)
			return
		}
		resp := topScoreResponse{Key: deps.TopScoreKey}
		if deps.TopScore != nil {
			score, ok, err := deps.TopScore.Get(r.Context())
			if err != nil {
				logger.Error().Err(err).Msg("top score read failed")
				httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeTopScoreFetchFailed, "could not read top score")
				return
			}
			if ok {
				resp.Score = &score
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httperrors.RespondMethodNotAllowed(w, http.MethodPost)
			return
		}
		if deps.Tickets == nil {
			httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeServiceUnavailable, "sessions disabled")
			return
		}
		sessionID, token, expiresAt, err := deps.Tickets.Issue()
		if err != nil {
			logger.Error().Err(err).Msg("ticket issue failed")
			httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeTicketIssueFailed, "could not issue ticket")
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{
			SessionID: sessionID.String(),
			Ticket:    token,
			ExpiresAt: expiresAt.UTC(),
		})
	})

	mux.HandleFunc("/v1/sessions/active", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httperrors.RespondMethodNotAllowed(w, http.MethodGet)
			return
		}
		if deps.Hub == nil {
			httperrors.RespondError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "no active session")
			return
		}
		sessionID, ok := deps.Hub.Active()
		if !ok {
			httperrors.RespondError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "no active session")
			return
		}
		writeJSON(w, http.StatusOK, activeSessionResponse{SessionID: sessionID.String()})
	})

	if deps.PlayHandler != nil {
		mux.HandleFunc("/ws/session", deps.PlayHandler)
	} else {
		mux.HandleFunc("/ws/session", func(w http.ResponseWriter, r *http.Request) {
			httperrors.RespondError(w, http.StatusNotImplemented, httperrors.ErrCodeServiceUnavailable, "play handler not configured")
		})
	}

	return mux
}

type topScoreResponse struct {
	Key   string `json:"key"`
	Score *int   `json:"score"`
}

type activeSessionResponse struct {
	SessionID string `json:"session_id"`
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	logger := logging.FromContext(ctx)
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		logger.Debug().Msg("postgres ok")
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		logger.Debug().Msg("redis ok")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
