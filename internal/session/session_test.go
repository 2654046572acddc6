package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
)

// twoOptionQuiz builds n questions with ids 1..n; option 1 is correct, option 2 is not.
func twoOptionQuiz(n int) *quiz.Quiz {
	q := &quiz.Quiz{Title: "Test", DurationSeconds: 15}
	for i := 1; i <= n; i++ {
		q.Questions = append(q.Questions, quiz.Question{
			ID:               i,
			Description:      "Question",
			DetailedSolution: "Because.",
			Options: []quiz.Option{
				{ID: 1, Description: "right", IsCorrect: true},
				{ID: 2, Description: "wrong"},
			},
		})
	}
	return q
}

func startedSession(t *testing.T, n int) *Session {
	t.Helper()
	s, err := New(twoOptionQuiz(n), DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	return s
}

func TestNewRejectsEmptyQuiz(t *testing.T) {
	_, err := New(&quiz.Quiz{Title: "empty"}, DefaultOptions())
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)

	_, err = New(nil, DefaultOptions())
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)
}

func TestStartInitializesState(t *testing.T) {
	s, err := New(twoOptionQuiz(3), Options{})
	require.NoError(t, err)
	assert.Equal(t, NotStarted, s.Phase())
	_, ok := s.CurrentQuestion()
	assert.False(t, ok)

	require.NoError(t, s.Start())
	state := s.State()
	assert.Equal(t, InProgress, state.Phase)
	assert.Equal(t, 0, state.CurrentQuestionIndex)
	assert.Equal(t, TimerPeriod, state.RemainingSeconds)
	assert.Zero(t, state.Score)
	assert.Zero(t, state.Streak)
	assert.Zero(t, state.CorrectCount)
	assert.Zero(t, state.TimeTakenSeconds)
	assert.Empty(t, state.Answers)
}

func TestStartTwiceIsRejectedWithoutSideEffects(t *testing.T) {
	s := startedSession(t, 2)
	_, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	before := s.State()

	err = s.Start()
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, InProgress, stateErr.Phase)
	assert.Equal(t, before, s.State())
}

func TestOperationsBeforeStart(t *testing.T) {
	s, err := New(twoOptionQuiz(1), DefaultOptions())
	require.NoError(t, err)

	_, err = s.SelectAnswer(1, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Tick()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.Advance(), ErrInvalidState)
	assert.ErrorIs(t, s.Complete(), ErrInvalidState)
}

func TestSelectAnswerCorrectAndIncorrect(t *testing.T) {
	s := startedSession(t, 2)

	res, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.True(t, res.Celebrate)
	assert.Equal(t, 4, res.Points)
	assert.Equal(t, "Because.", res.Solution)

	state := s.State()
	assert.Equal(t, 4, state.Score)
	assert.Equal(t, 1, state.CorrectCount)
	assert.Equal(t, 1, state.Streak)
	assert.Equal(t, TimerPeriod, state.RemainingSeconds, "answering does not touch the timer")
	assert.Equal(t, 0, state.CurrentQuestionIndex, "answering does not advance")

	require.NoError(t, s.Advance())
	res, err = s.SelectAnswer(2, 2)
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.False(t, res.Celebrate)
	assert.Zero(t, res.Points)
	assert.Zero(t, s.State().Streak)
}

func TestSelectAnswerIsIdempotent(t *testing.T) {
	s := startedSession(t, 1)

	_, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	before := s.State()

	res, err := s.SelectAnswer(1, 2)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, res.OptionID, "reports the recorded answer")
	assert.Equal(t, before, s.State())

	res, err = s.SelectAnswer(1, 1)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 4, s.State().Score)
}

func TestSelectAnswerUnknownIDs(t *testing.T) {
	s := startedSession(t, 2)

	_, err := s.SelectAnswer(2, 1)
	var idErr *UnknownIDError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, 2, idErr.QuestionID)

	_, err = s.SelectAnswer(1, 99)
	assert.ErrorIs(t, err, ErrUnknownID)
	assert.Empty(t, s.State().Answers, "rejected answers are not recorded")
}

func TestStreakLaw(t *testing.T) {
	s := startedSession(t, 5)

	answer := func(qid, oid int) AnswerResult {
		t.Helper()
		res, err := s.SelectAnswer(qid, oid)
		require.NoError(t, err)
		require.NoError(t, s.Advance())
		return res
	}

	assert.Equal(t, 4, answer(1, 1).Points)
	assert.Equal(t, 5, answer(2, 1).Points)
	assert.Equal(t, 6, answer(3, 1).Points)
	assert.Equal(t, 0, answer(4, 2).Points)
	assert.Equal(t, 4, answer(5, 1).Points, "streak restarts after a miss")

	state := s.State()
	assert.Equal(t, Completed, state.Phase)
	assert.Equal(t, 19, state.Score)
	assert.Equal(t, 4, state.CorrectCount)
	assert.Equal(t, 1, state.Streak)
}

func TestTickFloorsAtZero(t *testing.T) {
	s := startedSession(t, 1)

	for i := 0; i < TimerPeriod-1; i++ {
		_, err := s.Tick()
		require.NoError(t, err)
	}
	remaining, err := s.Tick()
	require.NoError(t, err)
	assert.Zero(t, remaining)

	remaining, err = s.Tick()
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Zero(t, s.State().RemainingSeconds)
}

func TestTimeoutAdvancesWithoutAnswer(t *testing.T) {
	s := startedSession(t, 3)
	_, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	scoreBefore := s.State().Score

	for i := 0; i < TimerPeriod; i++ {
		_, err := s.Tick()
		require.NoError(t, err)
	}
	require.NoError(t, s.Advance())

	state := s.State()
	assert.Equal(t, 2, state.CurrentQuestionIndex)
	assert.Equal(t, TimerPeriod, state.RemainingSeconds)
	assert.Equal(t, scoreBefore, state.Score)
	assert.Equal(t, map[int]int{1: 1}, state.Answers)
	assert.Equal(t, 1, state.Streak, "streak survives a timeout by default")
}

func TestResetStreakOnTimeoutOption(t *testing.T) {
	opts := DefaultOptions()
	opts.ResetStreakOnTimeout = true
	s, err := New(twoOptionQuiz(3), opts)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	_, err = s.SelectAnswer(1, 1)
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	require.NoError(t, s.Advance())
	assert.Zero(t, s.State().Streak)

	res, err := s.SelectAnswer(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Points)
}

func TestTimeTakenAccumulates(t *testing.T) {
	s := startedSession(t, 2)

	for i := 0; i < 7; i++ {
		_, _ = s.Tick()
	}
	require.NoError(t, s.Advance())
	assert.Equal(t, 7, s.State().TimeTakenSeconds)

	for i := 0; i < 3; i++ {
		_, _ = s.Tick()
	}
	require.NoError(t, s.Advance())
	state := s.State()
	assert.Equal(t, Completed, state.Phase)
	assert.Equal(t, 10, state.TimeTakenSeconds, "final question counted exactly once")
}

func TestCompleteEarly(t *testing.T) {
	s := startedSession(t, 3)
	_, _ = s.Tick()
	_, _ = s.Tick()

	require.NoError(t, s.Complete())
	state := s.State()
	assert.Equal(t, Completed, state.Phase)
	assert.Equal(t, 2, state.TimeTakenSeconds)
	_, ok := s.CurrentQuestion()
	assert.False(t, ok)
}

func TestTerminalLaw(t *testing.T) {
	s := startedSession(t, 1)
	require.NoError(t, s.Advance())
	require.Equal(t, Completed, s.Phase())
	before := s.State()

	_, err := s.SelectAnswer(1, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Tick()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.Advance(), ErrInvalidState)
	assert.ErrorIs(t, s.Complete(), ErrInvalidState)
	assert.ErrorIs(t, s.Start(), ErrInvalidState)
	assert.Equal(t, before, s.State())
}

func TestEndToEndOneCorrectOneWrong(t *testing.T) {
	s := startedSession(t, 2)

	_, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	_, err = s.SelectAnswer(2, 2)
	require.NoError(t, err)
	require.NoError(t, s.Advance())

	state := s.State()
	assert.Equal(t, 4, state.Score)
	assert.Equal(t, 1, state.CorrectCount)
	assert.Equal(t, 0, state.Streak)
	assert.Equal(t, Completed, state.Phase)

	summary := s.Summary()
	assert.Equal(t, 2, summary.Answered)
	assert.Equal(t, 2, summary.TotalQuestions)
	assert.Equal(t, 0.5, summary.Accuracy)
}

func TestEndToEndSecondQuestionTimesOut(t *testing.T) {
	s := startedSession(t, 2)

	_, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	for i := 0; i < 30; i++ {
		_, err := s.Tick()
		require.NoError(t, err)
	}
	require.NoError(t, s.Advance())

	state := s.State()
	assert.Equal(t, Completed, state.Phase)
	assert.Equal(t, map[int]int{1: 1}, state.Answers)
	assert.Equal(t, 1, state.CorrectCount)
	assert.Equal(t, 4, state.Score)
	assert.Equal(t, 30, state.TimeTakenSeconds)
}

func TestStateStaysConsistentOverMixedSequences(t *testing.T) {
	s := startedSession(t, 6)
	choices := []int{1, 2, 1, 1, 0, 2}

	lastScore, lastCorrect := 0, 0
	for i, choice := range choices {
		if choice != 0 {
			_, err := s.SelectAnswer(i+1, choice)
			require.NoError(t, err)
		}
		state := s.State()
		assert.GreaterOrEqual(t, state.Score, lastScore)
		assert.GreaterOrEqual(t, state.CorrectCount, lastCorrect)
		assert.LessOrEqual(t, state.CorrectCount, len(choices))
		lastScore, lastCorrect = state.Score, state.CorrectCount
		require.NoError(t, s.Advance())
	}
	assert.Equal(t, Completed, s.Phase())
	assert.Equal(t, 4+4+5, s.State().Score)
}

func TestStateReturnsCopy(t *testing.T) {
	s := startedSession(t, 1)
	_, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)

	state := s.State()
	state.Answers[1] = 2
	assert.Equal(t, 1, s.State().Answers[1])
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "not_started", NotStarted.String())
	assert.Equal(t, "in_progress", InProgress.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "unknown", Phase(9).String())
}

func TestNewWithZeroOptionsScoresWithDefaults(t *testing.T) {
	s, err := New(twoOptionQuiz(2), Options{})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	first, err := s.SelectAnswer(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Points)

	require.NoError(t, s.Advance())
	second, err := s.SelectAnswer(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Points)
}
