package service

import (
	"errors"

	"survai/internal/model"
)

var (
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrResponseNotFound   = errors.New("response not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrUserNotFound       = errors.New("user not found")
)

// MinSentimentResponses is the fewest completed responses sentiment analysis accepts
const MinSentimentResponses = 3

// MaxGeneratedAssignments caps a single data generation run
const MaxGeneratedAssignments = 100

// ValidationError lists every schema violation in an AI payload
type ValidationError = model.ValidationError

// DataError means the stored data cannot support the requested operation
type DataError struct {
	Op  string
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

// InputError is a rejected trigger argument. Message is shown to the user as is.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

// ValidateGenerationInput checks a data generation request
func ValidateGenerationInput(assignments, responses int) error {
	if assignments < 1 || assignments > MaxGeneratedAssignments {
		return &InputError{Field: "assignments", Message: "Number of assignments must be between 1 and 100."}
	}
	if responses < 0 {
		return &InputError{Field: "responses", Message: "Number of responses cannot be negative."}
	}
	if responses > assignments {
		return &InputError{Field: "responses", Message: "Number of responses cannot exceed number of assignments."}
	}
	return nil
}
