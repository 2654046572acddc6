package play

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-sprint/internal/host"
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/session"
	"github.com/gokatarajesh/quiz-sprint/internal/ticket"
	"github.com/gokatarajesh/quiz-sprint/internal/topscore"
	httperrors "github.com/gokatarajesh/quiz-sprint/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-sprint/pkg/http/ws"
)

type testServer struct {
	srv     *httptest.Server
	tickets *ticket.Manager
	store   *topscore.MemoryStore
	hub     *ws.Hub
}

func sampleQuiz() *quiz.Quiz {
	opts := []quiz.Option{{ID: 1, Description: "right", IsCorrect: true}, {ID: 2, Description: "wrong"}}
	return &quiz.Quiz{
		Title: "Sprint",
		Questions: []quiz.Question{
			{ID: 101, Description: "first", Options: opts, DetailedSolution: "because"},
			{ID: 102, Description: "second", Options: opts},
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, sampleQuiz(), Options{
		Session: session.DefaultOptions(),
		// Long periods keep the clock out of the way; tests drive with next_question.
		Runner: host.Options{TickInterval: time.Hour, CelebrationDuration: time.Hour},
	})
}

func newTestServerWith(t *testing.T, q *quiz.Quiz, opts Options) *testServer {
	t.Helper()
	ts := &testServer{
		tickets: ticket.NewManager(ticket.Config{Secret: []byte("test-secret")}),
		store:   topscore.NewMemoryStore(),
		hub:     ws.NewHub(zerolog.Nop()),
	}
	h := NewHandler(q, ts.store, ts.tickets, ts.hub, nil, opts, zerolog.Nop())

	ts.srv = httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	_, token, _, err := ts.tickets.Issue()
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "?ticket=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	msg, err := ws.NewMessage(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, out interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != msgType {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(msg.Payload, out))
		}
		return
	}
}

func TestHandleWebSocket_RejectsMissingTicket(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocket_RejectsForgedTicket(t *testing.T) {
	ts := newTestServer(t)
	other := ticket.NewManager(ticket.Config{Secret: []byte("other-secret")})
	_, token, _, err := other.Issue()
	require.NoError(t, err)

	resp, err := http.Get(ts.srv.URL + "?ticket=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocket_PlaysFullSession(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	var ready ws.SessionReadyPayload
	readUntil(t, conn, ws.TypeSessionReady, &ready)
	assert.Equal(t, "Sprint", ready.Title)
	assert.Equal(t, 2, ready.QuestionCount)
	assert.Equal(t, session.TimerPeriod, ready.PerQuestionSeconds)
	assert.Nil(t, ready.TopScore)

	active, ok := ts.hub.Active()
	assert.True(t, ok)
	assert.Equal(t, ready.SessionID, active.String())

	send(t, conn, ws.TypeStart, nil)
	var q ws.QuestionPayload
	readUntil(t, conn, ws.TypeQuestion, &q)
	assert.Equal(t, 0, q.Index)
	assert.Equal(t, 101, q.ID)
	assert.Equal(t, 30, q.RemainingSeconds)
	require.Len(t, q.Options, 2)

	send(t, conn, ws.TypeSelectAnswer, ws.SelectAnswerPayload{QuestionID: 101, OptionID: 1})
	var ack ws.AnswerAckPayload
	readUntil(t, conn, ws.TypeAnswerAck, &ack)
	assert.True(t, ack.Correct)
	assert.Equal(t, 4, ack.Points)
	assert.Equal(t, 4, ack.Score)
	assert.Equal(t, "because", ack.Solution)

	var party ws.CelebrationPayload
	readUntil(t, conn, ws.TypeCelebration, &party)
	assert.True(t, party.Active)

	send(t, conn, ws.TypeNextQuestion, nil)
	readUntil(t, conn, ws.TypeQuestion, &q)
	assert.Equal(t, 1, q.Index)
	assert.Equal(t, 102, q.ID)
	assert.Equal(t, 4, q.Score)
	assert.Equal(t, 1, q.Streak)

	send(t, conn, ws.TypeSelectAnswer, ws.SelectAnswerPayload{QuestionID: 102, OptionID: 2})
	readUntil(t, conn, ws.TypeAnswerAck, &ack)
	assert.False(t, ack.Correct)
	assert.Equal(t, 0, ack.Streak)

	send(t, conn, ws.TypeNextQuestion, nil)
	var done ws.SessionCompletePayload
	readUntil(t, conn, ws.TypeSessionComplete, &done)
	assert.Equal(t, 4, done.Score)
	assert.Equal(t, 1, done.CorrectCount)
	assert.Equal(t, 2, done.Answered)
	assert.Equal(t, 4, done.TopScore)
	assert.True(t, done.NewBest)

	best, ok, err := ts.store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, best)

	send(t, conn, ws.TypeSelectAnswer, ws.SelectAnswerPayload{QuestionID: 102, OptionID: 1})
	var perr ws.ErrorPayload
	readUntil(t, conn, ws.TypeError, &perr)
	assert.Equal(t, httperrors.ErrCodeInvalidState, perr.Code)
}

func TestHandleWebSocket_ReadyCarriesStoredBest(t *testing.T) {
	ts := newTestServer(t)
	_, _, err := ts.store.SetIfHigher(context.Background(), 17)
	require.NoError(t, err)

	conn := ts.dial(t)
	var ready ws.SessionReadyPayload
	readUntil(t, conn, ws.TypeSessionReady, &ready)
	require.NotNil(t, ready.TopScore)
	assert.Equal(t, 17, *ready.TopScore)
}

func TestHandleWebSocket_ProtocolErrors(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)
	readUntil(t, conn, ws.TypeSessionReady, nil)

	var perr ws.ErrorPayload

	send(t, conn, ws.TypeNextQuestion, nil)
	readUntil(t, conn, ws.TypeError, &perr)
	assert.Equal(t, httperrors.ErrCodeSessionNotStarted, perr.Code)

	send(t, conn, "dance", nil)
	readUntil(t, conn, ws.TypeError, &perr)
	assert.Equal(t, httperrors.ErrCodeUnknownMessageType, perr.Code)

	send(t, conn, ws.TypeStart, nil)
	readUntil(t, conn, ws.TypeQuestion, nil)

	send(t, conn, ws.TypeStart, nil)
	readUntil(t, conn, ws.TypeError, &perr)
	assert.Equal(t, httperrors.ErrCodeInvalidState, perr.Code)

	send(t, conn, ws.TypeSelectAnswer, ws.SelectAnswerPayload{QuestionID: 101, OptionID: 99})
	readUntil(t, conn, ws.TypeError, &perr)
	assert.Equal(t, httperrors.ErrCodeUnknownID, perr.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"select_answer","payload":"oops"}`)))
	readUntil(t, conn, ws.TypeError, &perr)
	assert.Equal(t, httperrors.ErrCodeInvalidPayload, perr.Code)
}

func TestHandleWebSocket_NewConnectionEvictsPrevious(t *testing.T) {
	ts := newTestServer(t)

	first := ts.dial(t)
	readUntil(t, first, ws.TypeSessionReady, nil)

	second := ts.dial(t)
	readUntil(t, second, ws.TypeSessionReady, nil)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg ws.Message
		if err := first.ReadJSON(&msg); err != nil {
			break
		}
	}

	send(t, second, ws.TypeStart, nil)
	readUntil(t, second, ws.TypeQuestion, nil)
}

func TestHandleWebSocket_IdlePlayerSurvivesTimeouts(t *testing.T) {
	q := sampleQuiz()
	q.Questions = append(q.Questions, quiz.Question{ID: 103, Description: "third", Options: q.Questions[0].Options})

	// Each question runs for 300ms, well past the 200ms silence allowance,
	// so only server pings keep the connection alive.
	ts := newTestServerWith(t, q, Options{
		Session:  session.DefaultOptions(),
		Runner:   host.Options{TickInterval: 10 * time.Millisecond, CelebrationDuration: time.Hour},
		PongWait: 200 * time.Millisecond,
	})
	conn := ts.dial(t)
	readUntil(t, conn, ws.TypeSessionReady, nil)
	send(t, conn, ws.TypeStart, nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	timeouts := 0
	for {
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg), "connection dropped before session_complete")
		if msg.Type == ws.TypeTimeout {
			timeouts++
		}
		if msg.Type != ws.TypeSessionComplete {
			continue
		}
		var done ws.SessionCompletePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &done))
		assert.Equal(t, 0, done.Score)
		assert.Equal(t, 0, done.Answered)
		assert.Equal(t, 3, done.TotalQuestions)
		assert.Equal(t, 3*session.TimerPeriod, done.TimeTakenSeconds)
		break
	}
	assert.Equal(t, 3, timeouts)

	_, ok, err := ts.store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "best score recorded after an idle run")
}
