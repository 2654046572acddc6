package play

import (
	"errors"

	"github.com/gokatarajesh/quiz-sprint/internal/host"
	"github.com/gokatarajesh/quiz-sprint/internal/session"
	httperrors "github.com/gokatarajesh/quiz-sprint/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-sprint/pkg/http/ws"
)

// translate maps a runner event onto the wire. ok is false for events the
// client does not need.
func translate(e host.Event, total int) (msgType string, payload interface{}, ok bool) {
	switch e.Type {
	case host.EventQuestion:
		q := e.Question
		opts := make([]ws.OptionChoice, len(q.Options))
		for i, o := range q.Options {
			opts[i] = ws.OptionChoice{ID: o.ID, Description: o.Description}
		}
		return ws.TypeQuestion, ws.QuestionPayload{
			Index:            e.State.CurrentQuestionIndex,
			Total:            total,
			ID:               q.ID,
			Description:      q.Description,
			Options:          opts,
			RemainingSeconds: e.State.RemainingSeconds,
			Score:            e.State.Score,
			Streak:           e.State.Streak,
		}, true

	case host.EventTick:
		return ws.TypeTick, ws.TickPayload{
			QuestionIndex:    e.State.CurrentQuestionIndex,
			RemainingSeconds: e.State.RemainingSeconds,
		}, true

	case host.EventAnswer:
		a := e.Answer
		return ws.TypeAnswerAck, ws.AnswerAckPayload{
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
			Correct:    a.Correct,
			Points:     a.Points,
			Score:      e.State.Score,
			Streak:     e.State.Streak,
			Solution:   a.Solution,
		}, true

	case host.EventTimeout:
		return ws.TypeTimeout, ws.TimeoutPayload{QuestionID: e.Question.ID}, true

	case host.EventCelebrationStart:
		return ws.TypeCelebration, ws.CelebrationPayload{Active: true, DurationMs: int(e.Duration.Milliseconds())}, true

	case host.EventCelebrationEnd:
		return ws.TypeCelebration, ws.CelebrationPayload{Active: false}, true

	case host.EventRejected:
		code := httperrors.ErrCodeInternalError
		switch {
		case errors.Is(e.Err, session.ErrInvalidState):
			code = httperrors.ErrCodeInvalidState
		case errors.Is(e.Err, session.ErrUnknownID):
			code = httperrors.ErrCodeUnknownID
		}
		return ws.TypeError, ws.ErrorPayload{Code: code, Message: e.Err.Error()}, true

	case host.EventCompleted:
		out := e.Outcome
		return ws.TypeSessionComplete, ws.SessionCompletePayload{
			Score:            out.Summary.Score,
			CorrectCount:     out.Summary.CorrectCount,
			Answered:         out.Summary.Answered,
			TotalQuestions:   out.Summary.TotalQuestions,
			TimeTakenSeconds: out.Summary.TimeTakenSeconds,
			Accuracy:         out.Summary.Accuracy,
			TopScore:         out.Best,
			NewBest:          out.NewBest,
		}, true
	}
	return "", nil, false
}
