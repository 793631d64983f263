package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is the live selection for one (session, question) pair.
// IsCorrect is always derived server-side.
type Answer struct {
	ID             uuid.UUID `json:"id"`
	ExamSessionID  uuid.UUID `json:"exam_session_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      bool      `json:"-"`
	SavedAt        time.Time `json:"saved_at"`
}

// SaveAnswerRequest is the payload for saving (or autosaving) one answer.
// An empty SelectedOption is a no-op acknowledgment.
type SaveAnswerRequest struct {
	QuestionID     string `json:"question_id" binding:"required,uuid"`
	SelectedOption string `json:"selected_option" binding:"omitempty,option_letter"`
}

// SaveAnswerResult distinguishes a persisted save from a no-op.
type SaveAnswerResult struct {
	Saved    bool       `json:"saved"`
	AnswerID *uuid.UUID `json:"answer_id,omitempty"`
	Message  string     `json:"message,omitempty"`
}
