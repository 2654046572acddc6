package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidQuiz matches every *ValidationError via errors.Is.
var ErrInvalidQuiz = errors.New("invalid quiz")

// ValidationError reports malformed quiz input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid quiz: %s", e.Reason)
	}
	return fmt.Sprintf("invalid quiz: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuiz
}

// Validate checks the structural rules a session relies on: at least one
// question, unique question ids, and every question carrying uniquely
// identified options.
func Validate(q *Quiz) error {
	if q == nil {
		return &ValidationError{Reason: "quiz is nil"}
	}
	if len(q.Questions) == 0 {
		return &ValidationError{Field: "questions", Reason: "quiz has no questions"}
	}

	seenQuestions := make(map[int]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if _, dup := seenQuestions[question.ID]; dup {
			return &ValidationError{Field: field + ".id", Reason: fmt.Sprintf("duplicate question id %d", question.ID)}
		}
		seenQuestions[question.ID] = struct{}{}

		if len(question.Options) == 0 {
			return &ValidationError{Field: field + ".options", Reason: "question has no options"}
		}
		seenOptions := make(map[int]struct{}, len(question.Options))
		for j, opt := range question.Options {
			if _, dup := seenOptions[opt.ID]; dup {
				return &ValidationError{
					Field:  fmt.Sprintf("%s.options[%d].id", field, j),
					Reason: fmt.Sprintf("duplicate option id %d", opt.ID),
				}
			}
			seenOptions[opt.ID] = struct{}{}
		}
	}
	return nil
}

// Decode parses a quiz document and validates it.
func Decode(data []byte) (*Quiz, error) {
	var q Quiz
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("decode json: %v", err)}
	}
	if err := Validate(&q); err != nil {
		return nil, err
	}
	return &q, nil
}
