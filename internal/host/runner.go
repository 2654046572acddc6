// Package host drives a quiz session against a real clock: it ticks the
// countdown, applies player commands, times the celebration effect and
// records the best score when the session completes.
package host

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-sprint/internal/metrics"
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/session"
	"github.com/gokatarajesh/quiz-sprint/internal/topscore"
)

// CommandKind enumerates player input.
type CommandKind int

const (
	CommandAnswer CommandKind = iota + 1
	CommandChoose
	CommandNext
	CommandFinish
)

// Command is one piece of player input.
type Command struct {
	Kind       CommandKind
	QuestionID int
	OptionID   int
	// Position is the zero-based option index for CommandChoose.
	Position int
}

func Answer(questionID, optionID int) Command {
	return Command{Kind: CommandAnswer, QuestionID: questionID, OptionID: optionID}
}

// Choose answers the question currently shown by option position, for hosts
// that present options as letters and do not track question ids.
func Choose(position int) Command {
	return Command{Kind: CommandChoose, Position: position}
}

func Next() Command { return Command{Kind: CommandNext} }

func Finish() Command { return Command{Kind: CommandFinish} }

// EventType names what just happened in a running session.
type EventType string

const (
	EventStarted          EventType = "started"
	EventQuestion         EventType = "question"
	EventTick             EventType = "tick"
	EventAnswer           EventType = "answer"
	EventCelebrationStart EventType = "celebration_start"
	EventCelebrationEnd   EventType = "celebration_end"
	EventTimeout          EventType = "timeout"
	EventRejected         EventType = "rejected"
	EventCompleted        EventType = "completed"
)

// Event is delivered to the host after every state change.
type Event struct {
	Type     EventType
	State    session.State
	Question *quiz.Question
	Answer   *session.AnswerResult
	Outcome  *Outcome
	// Duration is set on EventCelebrationStart.
	Duration time.Duration
	Err      error
}

// Outcome is the final report of a run.
type Outcome struct {
	Summary      session.Summary
	PreviousBest int
	HadPrevious  bool
	Best         int
	NewBest      bool
}

// Ticker is the countdown clock. Reset restarts the period, used when a new
// question is shown.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time   { return r.t.C }
func (r realTicker) Reset(d time.Duration) { r.t.Reset(d) }
func (r realTicker) Stop()                 { r.t.Stop() }

// Options configures timing. Zero values fall back to defaults.
type Options struct {
	TickInterval        time.Duration // default: 1s
	CelebrationDuration time.Duration // default: session.CelebrationDuration
	NewTicker           func(d time.Duration) Ticker
	After               func(d time.Duration) <-chan time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.CelebrationDuration <= 0 {
		o.CelebrationDuration = session.CelebrationDuration
	}
	if o.NewTicker == nil {
		o.NewTicker = func(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }
	}
	if o.After == nil {
		o.After = time.After
	}
	return o
}

// Runner owns one session for the duration of Run.
type Runner struct {
	sess    *session.Session
	store   topscore.Store
	metrics *metrics.Recorder
	logger  zerolog.Logger
	opts    Options
}

// NewRunner wires a session to its collaborators. store and rec may be nil.
func NewRunner(sess *session.Session, store topscore.Store, rec *metrics.Recorder, logger zerolog.Logger, opts Options) *Runner {
	return &Runner{
		sess:    sess,
		store:   store,
		metrics: rec,
		logger:  logger.With().Str("component", "session_runner").Logger(),
		opts:    opts.withDefaults(),
	}
}

// Run starts the session and blocks until it completes or ctx is cancelled.
// All session calls happen on the calling goroutine; emit is invoked
// synchronously after each transition.
func (r *Runner) Run(ctx context.Context, commands <-chan Command, emit func(Event)) (Outcome, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	if err := r.sess.Start(); err != nil {
		return Outcome{}, err
	}
	r.metrics.SessionStarted()
	r.logger.Info().Str("quiz", r.sess.Quiz().Title).Int("questions", len(r.sess.Quiz().Questions)).Msg("session started")

	emit(Event{Type: EventStarted, State: r.sess.State()})
	r.emitQuestion(emit)

	ticker := r.opts.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	var celebration <-chan time.Time
	for r.sess.Phase() == session.InProgress {
		select {
		case <-ctx.Done():
			r.logger.Info().Err(ctx.Err()).Msg("session abandoned")
			return Outcome{Summary: r.sess.Summary()}, ctx.Err()

		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if r.handle(cmd, ticker, emit) {
				celebration = r.opts.After(r.opts.CelebrationDuration)
				emit(Event{Type: EventCelebrationStart, State: r.sess.State(), Duration: r.opts.CelebrationDuration})
			}

		case <-ticker.C():
			remaining, err := r.sess.Tick()
			if err != nil {
				return Outcome{Summary: r.sess.Summary()}, err
			}
			emit(Event{Type: EventTick, State: r.sess.State()})
			if remaining == 0 {
				r.timeout(emit)
				r.advance(ticker, emit)
			}

		case <-celebration:
			celebration = nil
			emit(Event{Type: EventCelebrationEnd, State: r.sess.State()})
		}
	}

	if celebration != nil {
		emit(Event{Type: EventCelebrationEnd, State: r.sess.State()})
	}
	return r.finish(ctx, emit), nil
}

// handle applies one command and reports whether a celebration should start.
func (r *Runner) handle(cmd Command, ticker Ticker, emit func(Event)) bool {
	switch cmd.Kind {
	case CommandAnswer:
		return r.answer(cmd.QuestionID, cmd.OptionID, emit)

	case CommandChoose:
		q, _ := r.sess.CurrentQuestion()
		if cmd.Position < 0 || cmd.Position >= len(q.Options) {
			err := &session.UnknownIDError{QuestionID: q.ID, OptionID: -1, Reason: "no option at that position"}
			emit(Event{Type: EventRejected, State: r.sess.State(), Err: err})
			return false
		}
		return r.answer(q.ID, q.Options[cmd.Position].ID, emit)

	case CommandNext:
		r.advance(ticker, emit)

	case CommandFinish:
		if err := r.sess.Complete(); err != nil {
			emit(Event{Type: EventRejected, State: r.sess.State(), Err: err})
		}
	}
	return false
}

func (r *Runner) answer(questionID, optionID int, emit func(Event)) bool {
	res, err := r.sess.SelectAnswer(questionID, optionID)
	if err != nil {
		r.logger.Debug().Err(err).Int("question_id", questionID).Int("option_id", optionID).Msg("answer rejected")
		emit(Event{Type: EventRejected, State: r.sess.State(), Err: err})
		return false
	}
	if res.Duplicate {
		return false
	}
	r.metrics.Answer(res.Correct)
	emit(Event{Type: EventAnswer, State: r.sess.State(), Answer: &res})
	return res.Celebrate
}

func (r *Runner) timeout(emit func(Event)) {
	q, ok := r.sess.CurrentQuestion()
	if !ok {
		return
	}
	if _, answered := r.sess.State().Answers[q.ID]; answered {
		return
	}
	r.metrics.Timeout()
	emit(Event{Type: EventTimeout, State: r.sess.State(), Question: &q})
}

func (r *Runner) advance(ticker Ticker, emit func(Event)) {
	if err := r.sess.Advance(); err != nil {
		emit(Event{Type: EventRejected, State: r.sess.State(), Err: err})
		return
	}
	if r.sess.Phase() == session.InProgress {
		ticker.Reset(r.opts.TickInterval)
		r.emitQuestion(emit)
	}
}

func (r *Runner) emitQuestion(emit func(Event)) {
	if q, ok := r.sess.CurrentQuestion(); ok {
		emit(Event{Type: EventQuestion, State: r.sess.State(), Question: &q})
	}
}

// finish compares the final score with the stored best. Store failures are
// reported on the event but never lose the summary.
func (r *Runner) finish(ctx context.Context, emit func(Event)) Outcome {
	out := Outcome{Summary: r.sess.Summary()}
	out.Best = out.Summary.Score

	var storeErr error
	if r.store != nil {
		prev, had, err := r.store.Get(ctx)
		if err != nil {
			storeErr = err
		} else {
			out.PreviousBest, out.HadPrevious = prev, had
			best, updated, err := r.store.SetIfHigher(ctx, out.Summary.Score)
			if err != nil {
				storeErr = err
			} else {
				out.Best, out.NewBest = best, updated
			}
		}
	}
	if storeErr != nil {
		r.logger.Warn().Err(storeErr).Msg("top score update failed")
	}

	r.metrics.SessionCompleted(out.Summary.Score, out.NewBest)
	r.logger.Info().
		Int("score", out.Summary.Score).
		Int("correct", out.Summary.CorrectCount).
		Int("time_taken_seconds", out.Summary.TimeTakenSeconds).
		Bool("new_best", out.NewBest).
		Msg("session completed")

	emit(Event{Type: EventCompleted, State: r.sess.State(), Outcome: &out, Err: storeErr})
	return out
}
