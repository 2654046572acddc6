package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-sprint/internal/host"
	"github.com/gokatarajesh/quiz-sprint/internal/metrics"
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/session"
	"github.com/gokatarajesh/quiz-sprint/internal/ticket"
	"github.com/gokatarajesh/quiz-sprint/internal/topscore"
	httperrors "github.com/gokatarajesh/quiz-sprint/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-sprint/pkg/http/ws"
)

// Options carries session and clock settings for every connection.
type Options struct {
	Session session.Options
	Runner  host.Options

	// PongWait bounds client silence; zero uses ws.DefaultPongWait.
	PongWait time.Duration
}

// Handler serves the play WebSocket: each connection plays one session.
type Handler struct {
	quiz     *quiz.Quiz
	store    topscore.Store
	tickets  *ticket.Manager
	hub      *ws.Hub
	metrics  *metrics.Recorder
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a play WebSocket handler.
func NewHandler(q *quiz.Quiz, store topscore.Store, tickets *ticket.Manager, hub *ws.Hub, rec *metrics.Recorder, opts Options, logger zerolog.Logger) *Handler {
	return &Handler{
		quiz:    q,
		store:   store,
		tickets: tickets,
		hub:     hub,
		metrics: rec,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The ticket gates access, so any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "play").Logger(),
	}
}

// HandleWebSocket validates the session ticket and upgrades the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("ticket")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidTicket, "Missing ticket")
		return
	}

	claims, err := h.tickets.Validate(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ticket validation failed")
		code := httperrors.ErrCodeInvalidTicket
		if errors.Is(err, ticket.ErrExpiredTicket) {
			code = httperrors.ErrCodeTicketExpired
		}
		httperrors.RespondUnauthorized(w, code, "Invalid ticket")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, claims.SessionID)
}

// HandleConnection runs the message loop for one connection and blocks until
// the peer disconnects and the session runner has stopped.
func (h *Handler) HandleConnection(conn *websocket.Conn, sessionID uuid.UUID) {
	logger := h.logger.With().Str("session_id", sessionID.String()).Logger()
	wsConn := ws.NewConnection(conn, logger)
	wsConn.SetPongWait(h.opts.PongWait)
	h.hub.RegisterConnection(sessionID, wsConn)

	go wsConn.WritePump()

	ctx, cancel := context.WithCancel(context.Background())
	p := &player{
		h:         h,
		sessionID: sessionID,
		conn:      wsConn,
		commands:  make(chan host.Command, 16),
		finished:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger,
	}

	p.sendReady(ctx)
	wsConn.ReadPump(func(msg ws.Message) error {
		return p.handleMessage(ctx, msg)
	})

	cancel()
	p.wait()
	h.hub.UnregisterConnection(sessionID, wsConn)
}

// player is the per-connection state. handleMessage runs on the read pump
// goroutine; the session itself is only touched by the runner goroutine.
// finished closes before session_complete is sent, done once the runner
// goroutine has returned.
type player struct {
	h         *Handler
	sessionID uuid.UUID
	conn      *ws.Connection
	commands  chan host.Command
	started   bool
	finished  chan struct{}
	done      chan struct{}
	logger    zerolog.Logger
}

func (p *player) handleMessage(ctx context.Context, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStart:
		return p.start(ctx)
	case ws.TypeSelectAnswer:
		var req ws.SelectAnswerPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return p.sendError(httperrors.ErrCodeInvalidPayload, "Invalid select_answer payload")
		}
		return p.enqueue(ctx, host.Answer(req.QuestionID, req.OptionID))
	case ws.TypeNextQuestion:
		return p.enqueue(ctx, host.Next())
	case ws.TypeFinish:
		return p.enqueue(ctx, host.Finish())
	default:
		return p.sendError(httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (p *player) start(ctx context.Context) error {
	if p.started {
		return p.sendError(httperrors.ErrCodeInvalidState, "Session already started")
	}
	sess, err := session.New(p.h.quiz, p.h.opts.Session)
	if err != nil {
		return p.sendError(httperrors.ErrCodeInternalError, err.Error())
	}
	p.started = true

	runner := host.NewRunner(sess, p.h.store, p.h.metrics, p.logger, p.h.opts.Runner)
	total := len(p.h.quiz.Questions)
	go func() {
		defer close(p.done)
		if _, err := runner.Run(ctx, p.commands, func(e host.Event) { p.forward(e, total) }); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn().Err(err).Msg("session runner stopped")
		}
	}()
	return nil
}

func (p *player) enqueue(ctx context.Context, cmd host.Command) error {
	if !p.started {
		return p.sendError(httperrors.ErrCodeSessionNotStarted, "Send start first")
	}
	select {
	case <-p.finished:
		return p.sendError(httperrors.ErrCodeInvalidState, "Session already completed")
	default:
	}
	select {
	case p.commands <- cmd:
		return nil
	case <-p.finished:
		return p.sendError(httperrors.ErrCodeInvalidState, "Session already completed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *player) wait() {
	if p.started {
		<-p.done
	}
}

func (p *player) sendReady(ctx context.Context) {
	payload := ws.SessionReadyPayload{
		SessionID:          p.sessionID.String(),
		Title:              p.h.quiz.Title,
		Description:        p.h.quiz.Description,
		QuestionCount:      len(p.h.quiz.Questions),
		PerQuestionSeconds: session.TimerPeriod,
	}
	if p.h.store != nil {
		if best, ok, err := p.h.store.Get(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("top score read failed")
		} else if ok {
			payload.TopScore = &best
		}
	}
	p.send(ws.TypeSessionReady, payload)
}

func (p *player) forward(e host.Event, total int) {
	if e.Type == host.EventCompleted {
		close(p.finished)
	}
	msgType, payload, ok := translate(e, total)
	if !ok {
		return
	}
	p.send(msgType, payload)
}

func (p *player) send(msgType string, payload interface{}) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		p.logger.Error().Err(err).Str("type", msgType).Msg("marshal message")
		return
	}
	if err := p.conn.Send(msg); err != nil {
		p.logger.Debug().Err(err).Str("type", msgType).Msg("send failed")
	}
}

func (p *player) sendError(code, message string) error {
	p.send(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	return nil
}
