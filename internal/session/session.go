// Package session implements the quiz session state machine: question
// progression, answer locking, streak scoring, timeouts and completion.
// A Session holds no clock and no locks; its owner serializes calls and
// drives Tick once per second.
package session

import (
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/scoring"
)

// Options tunes session behavior.
type Options struct {
	Scoring scoring.Config
	// ResetStreakOnTimeout zeroes the streak when a question is advanced
	// past without an answer. Off by default: the streak survives a timeout.
	ResetStreakOnTimeout bool
}

// DefaultOptions returns the standard scoring and timeout behavior.
func DefaultOptions() Options {
	return Options{Scoring: scoring.DefaultConfig()}
}

// Session is one run through a quiz.
type Session struct {
	quiz   *quiz.Quiz
	engine *scoring.Engine
	opts   Options

	phase     Phase
	index     int
	remaining int
	score     int
	correct   int
	streak    int
	timeTaken int
	answers   map[int]int
}

// New validates q and returns a session in NotStarted.
func New(q *quiz.Quiz, opts Options) (*Session, error) {
	if err := quiz.Validate(q); err != nil {
		return nil, err
	}
	if opts.Scoring == (scoring.Config{}) {
		opts.Scoring = scoring.DefaultConfig()
	}
	return &Session{
		quiz:    q,
		engine:  scoring.NewEngine(opts.Scoring),
		opts:    opts,
		phase:   NotStarted,
		answers: map[int]int{},
	}, nil
}

// Start begins the first question. Calling it again leaves the session
// untouched and reports InvalidStateError.
func (s *Session) Start() error {
	if s.phase != NotStarted {
		return &InvalidStateError{Op: "start", Phase: s.phase}
	}
	s.phase = InProgress
	s.index = 0
	s.remaining = TimerPeriod
	s.score = 0
	s.streak = 0
	s.correct = 0
	s.timeTaken = 0
	s.answers = map[int]int{}
	return nil
}

// SelectAnswer records the first answer for the current question and scores it.
// A repeated submission for an answered question is a no-op reported through
// AnswerResult.Duplicate.
func (s *Session) SelectAnswer(questionID, optionID int) (AnswerResult, error) {
	if s.phase != InProgress {
		return AnswerResult{}, &InvalidStateError{Op: "select answer", Phase: s.phase}
	}

	current := s.quiz.Questions[s.index]
	if questionID != current.ID {
		return AnswerResult{}, &UnknownIDError{QuestionID: questionID, OptionID: optionID, Reason: "not the current question"}
	}

	if prev, answered := s.answers[questionID]; answered {
		return AnswerResult{QuestionID: questionID, OptionID: prev, Duplicate: true}, nil
	}

	opt, ok := current.Option(optionID)
	if !ok {
		return AnswerResult{}, &UnknownIDError{QuestionID: questionID, OptionID: optionID, Reason: "option does not belong to question"}
	}

	s.answers[questionID] = optionID
	result := AnswerResult{
		QuestionID: questionID,
		OptionID:   optionID,
		Correct:    opt.IsCorrect,
		Solution:   current.DetailedSolution,
	}

	if opt.IsCorrect {
		result.Points = s.engine.Points(true, s.streak)
		result.Celebrate = true
		s.score += result.Points
		s.correct++
		s.streak++
	} else {
		s.streak = 0
	}
	return result, nil
}

// Tick counts the current question down by one second, stopping at zero.
// When it returns 0 the host should call Advance.
func (s *Session) Tick() (int, error) {
	if s.phase != InProgress {
		return 0, &InvalidStateError{Op: "tick", Phase: s.phase}
	}
	if s.remaining > 0 {
		s.remaining--
	}
	return s.remaining, nil
}

// Advance closes the current question and moves to the next one, completing
// the session after the last question.
func (s *Session) Advance() error {
	if s.phase != InProgress {
		return &InvalidStateError{Op: "advance", Phase: s.phase}
	}

	if _, answered := s.answers[s.quiz.Questions[s.index].ID]; !answered && s.opts.ResetStreakOnTimeout {
		s.streak = 0
	}

	if s.index == len(s.quiz.Questions)-1 {
		s.finish()
		return nil
	}

	s.timeTaken += TimerPeriod - s.remaining
	s.index++
	s.remaining = TimerPeriod
	return nil
}

// Complete ends the session early, counting time spent on the current question.
func (s *Session) Complete() error {
	if s.phase != InProgress {
		return &InvalidStateError{Op: "complete", Phase: s.phase}
	}
	s.finish()
	return nil
}

func (s *Session) finish() {
	s.timeTaken += TimerPeriod - s.remaining
	s.phase = Completed
}

// Phase reports the lifecycle position.
func (s *Session) Phase() Phase { return s.phase }

// Quiz returns the quiz being played.
func (s *Session) Quiz() *quiz.Quiz { return s.quiz }

// CurrentQuestion returns the question on screen; ok is false outside InProgress.
func (s *Session) CurrentQuestion() (q quiz.Question, ok bool) {
	if s.phase != InProgress {
		return quiz.Question{}, false
	}
	return s.quiz.Questions[s.index], true
}

// State returns a copy of the session state.
func (s *Session) State() State {
	answers := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return State{
		Phase:                s.phase,
		CurrentQuestionIndex: s.index,
		RemainingSeconds:     s.remaining,
		Score:                s.score,
		CorrectCount:         s.correct,
		Streak:               s.streak,
		TimeTakenSeconds:     s.timeTaken,
		Answers:              answers,
	}
}

// Summary reports score and timing. It is final once the session is Completed.
func (s *Session) Summary() Summary {
	total := len(s.quiz.Questions)
	return Summary{
		Score:            s.score,
		CorrectCount:     s.correct,
		Answered:         len(s.answers),
		TotalQuestions:   total,
		TimeTakenSeconds: s.timeTaken,
		Accuracy:         scoring.Accuracy(s.correct, total),
	}
}
