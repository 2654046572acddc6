package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState matches every *InvalidStateError.
	ErrInvalidState = errors.New("invalid session state")
	// ErrUnknownID matches every *UnknownIDError.
	ErrUnknownID = errors.New("unknown question or option id")
)

// InvalidStateError is returned when an operation is called in a phase that forbids it.
type InvalidStateError struct {
	Op    string
	Phase Phase
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: not allowed while session is %s", e.Op, e.Phase)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// UnknownIDError is returned when an answer does not match the current question's option set.
type UnknownIDError struct {
	QuestionID int
	OptionID   int
	Reason     string
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("question %d option %d: %s", e.QuestionID, e.OptionID, e.Reason)
}

func (e *UnknownIDError) Is(target error) bool { return target == ErrUnknownID }
