package model

import "github.com/google/uuid"

// Subject is static reference data: one examinable course.
type Subject struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
}
