package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusPending       SessionStatus = "pending"
	SessionStatusInProgress    SessionStatus = "in_progress"
	SessionStatusCompleted     SessionStatus = "completed"
	SessionStatusAutoSubmitted SessionStatus = "auto_submitted"
)

// IsTerminal reports whether no further mutation is permitted.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAutoSubmitted
}

// CanTransitionTo reports whether s → next is a legal lifecycle step.
// Transitions only move forward: pending → in_progress → completed | auto_submitted.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusPending:
		return next == SessionStatusInProgress
	case SessionStatusInProgress:
		return next.IsTerminal()
	}
	return false
}

// SubmitTrigger identifies who ended the session.
type SubmitTrigger string

const (
	SubmitTriggerManual SubmitTrigger = "manual"
	SubmitTriggerTimeUp SubmitTrigger = "time_up"
)

// Valid reports whether t is a known trigger.
func (t SubmitTrigger) Valid() bool {
	return t == SubmitTriggerManual || t == SubmitTriggerTimeUp
}

// TerminalStatus maps a submit trigger to the status recorded on completion.
func (t SubmitTrigger) TerminalStatus() SessionStatus {
	if t == SubmitTriggerTimeUp {
		return SessionStatusAutoSubmitted
	}
	return SessionStatusCompleted
}

// ExamSession is one timed attempt by one student at one subject.
// StartTime is set exactly once, on pending → in_progress.
type ExamSession struct {
	ID             uuid.UUID     `json:"id"`
	StudentID      uuid.UUID     `json:"student_id"`
	SubjectID      uuid.UUID     `json:"subject_id"`
	StartTime      *time.Time    `json:"start_time"`
	EndTime        *time.Time    `json:"end_time"`
	Status         SessionStatus `json:"status"`
	TotalQuestions int           `json:"total_questions"`
	Score          *int          `json:"score"`
	TimeTaken      *int          `json:"time_taken"`
	CreatedAt      time.Time     `json:"created_at"`
}

// CreateSessionRequest is the payload for beginning an exam.
type CreateSessionRequest struct {
	StudentName string `json:"student_name" binding:"required,min=2,max=100"`
	Gender      Gender `json:"gender" binding:"required,oneof=Male Female"`
	SubjectName string `json:"subject_name" binding:"required,min=1,max=100"`
}

// SubmitSessionRequest is the optional payload for submitting an exam.
type SubmitSessionRequest struct {
	Trigger SubmitTrigger `json:"trigger" binding:"omitempty,oneof=manual time_up"`
}

// SessionView is the read model of a session with subject details joined in.
type SessionView struct {
	ID               uuid.UUID     `json:"id"`
	SubjectID        uuid.UUID     `json:"subject_id"`
	SubjectName      string        `json:"subject_name"`
	DurationMinutes  int           `json:"duration_minutes"`
	TotalQuestions   int           `json:"total_questions"`
	StartTime        *time.Time    `json:"start_time"`
	EndTime          *time.Time    `json:"end_time"`
	TimeTaken        *int          `json:"time_taken"`
	Status           SessionStatus `json:"status"`
	RemainingSeconds *int          `json:"remaining_seconds,omitempty"`
}

// StartResult is returned by a start request.
type StartResult struct {
	StartTime      time.Time `json:"start_time"`
	AlreadyStarted bool      `json:"already_started"`
}

// SubmitResult is returned by a submit request.
type SubmitResult struct {
	Status           SessionStatus `json:"status"`
	CorrectCount     int           `json:"correct_count"`
	TotalQuestions   int           `json:"total_questions"`
	TimeTakenSeconds int           `json:"time_taken_seconds"`
	AlreadySubmitted bool          `json:"already_submitted"`
}

// ExamResult is the read-only result sheet of a session.
type ExamResult struct {
	SessionID        uuid.UUID     `json:"session_id"`
	StudentName      string        `json:"student_name"`
	Gender           Gender        `json:"gender"`
	SubjectName      string        `json:"subject_name"`
	Status           SessionStatus `json:"status"`
	Score            int           `json:"score"`
	TotalQuestions   int           `json:"total_questions"`
	Percentage       float64       `json:"percentage"`
	TimeTakenSeconds int           `json:"time_taken_seconds"`
}

// SessionCompletion holds the values written when a session becomes terminal.
type SessionCompletion struct {
	Status    SessionStatus
	EndTime   time.Time
	Score     int
	TimeTaken int
}
