package service

import "errors"

// Not-found family.
var (
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// Invalid-transition family.
var (
	ErrSessionNotActive        = errors.New("exam session is not in progress")
	ErrSessionNotStarted       = errors.New("exam session has not been started")
	ErrSessionAlreadyCompleted = errors.New("exam session is already completed")
	ErrQuestionNotInSession    = errors.New("question does not belong to the session's subject")
)

// Validation family.
var (
	ErrInvalidOption = errors.New("selected option is not offered by the question")
	ErrValidation    = errors.New("invalid input")
)
