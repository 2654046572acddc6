package quiz

// Quiz is the immutable question set a session is played against.
// Field names on the wire use the snake_case form.
type Quiz struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationSeconds int        `json:"duration"`
	Questions       []Question `json:"questions"`
	MaxMistakeCount int        `json:"max_mistake_count"`
}

// Question is a single multiple-choice prompt.
type Question struct {
	ID               int      `json:"id"`
	Description      string   `json:"description"`
	Options          []Option `json:"options"`
	DetailedSolution string   `json:"detailed_solution"`
}

// Option is one selectable answer. Exactly one option per question is
// expected to be correct; this is not enforced.
type Option struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
}

// Option looks up an option by id.
func (q Question) Option(id int) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// CorrectOption returns the first option flagged correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

// PublicQuiz is the client-facing view of a quiz with answers stripped.
type PublicQuiz struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	DurationSeconds int              `json:"duration"`
	QuestionCount   int              `json:"question_count"`
	MaxMistakeCount int              `json:"max_mistake_count"`
	Questions       []PublicQuestion `json:"questions,omitempty"`
}

// PublicQuestion omits correctness flags and the solution.
type PublicQuestion struct {
	ID          int            `json:"id"`
	Description string         `json:"description"`
	Options     []PublicOption `json:"options"`
}

type PublicOption struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Public returns the question without answer data.
func (q Question) Public() PublicQuestion {
	opts := make([]PublicOption, len(q.Options))
	for i, o := range q.Options {
		opts[i] = PublicOption{ID: o.ID, Description: o.Description}
	}
	return PublicQuestion{ID: q.ID, Description: q.Description, Options: opts}
}

// Public returns quiz metadata, optionally including the stripped questions.
func (q *Quiz) Public(withQuestions bool) PublicQuiz {
	out := PublicQuiz{
		Title:           q.Title,
		Description:     q.Description,
		DurationSeconds: q.DurationSeconds,
		QuestionCount:   len(q.Questions),
		MaxMistakeCount: q.MaxMistakeCount,
	}
	if withQuestions {
		out.Questions = make([]PublicQuestion, len(q.Questions))
		for i, question := range q.Questions {
			out.Questions[i] = question.Public()
		}
	}
	return out
}
