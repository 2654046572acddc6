package session

import "time"

// Phase is the session lifecycle position. Transitions are strictly
// NotStarted -> InProgress -> Completed.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Completed
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// TimerPeriod is the fixed per-question countdown in seconds. It does not
// depend on the quiz-level duration.
const TimerPeriod = 30

// CelebrationDuration is how long hosts show the correct-answer effect.
const CelebrationDuration = 2 * time.Second

// State is a read-only snapshot of a session.
type State struct {
	Phase                Phase
	CurrentQuestionIndex int
	RemainingSeconds     int
	Score                int
	CorrectCount         int
	Streak               int
	TimeTakenSeconds     int
	// Answers maps question id to the selected option id.
	Answers map[int]int
}

// AnswerResult describes the effect of SelectAnswer.
type AnswerResult struct {
	QuestionID int
	OptionID   int
	Correct    bool
	Points     int
	// Duplicate is set when the question was already answered; nothing changed.
	Duplicate bool
	// Celebrate signals the host to run the correct-answer effect for
	// CelebrationDuration. It carries no session state.
	Celebrate bool
	// Solution is the question's detailed solution, revealed once answered.
	Solution string
}

// Summary is the end-of-session report.
type Summary struct {
	Score            int     `json:"score"`
	CorrectCount     int     `json:"correct_count"`
	Answered         int     `json:"answered"`
	TotalQuestions   int     `json:"total_questions"`
	TimeTakenSeconds int     `json:"time_taken_seconds"`
	Accuracy         float64 `json:"accuracy"`
}
