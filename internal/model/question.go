package model

import (
	"github.com/google/uuid"
)

// OptionLetters are the answer letters in display order. E is optional per question.
var OptionLetters = []string{"A", "B", "C", "D", "E"}

// Question represents a single multiple-choice question of a subject.
// CorrectOption is never serialized.
type Question struct {
	ID             uuid.UUID `json:"id"`
	SubjectID      uuid.UUID `json:"subject_id"`
	QuestionNumber int       `json:"question_number"`
	QuestionText   string    `json:"question_text"`
	Instruction    *string   `json:"instruction,omitempty"`
	OptionA        string    `json:"option_a"`
	OptionB        string    `json:"option_b"`
	OptionC        string    `json:"option_c"`
	OptionD        string    `json:"option_d"`
	OptionE        *string   `json:"option_e,omitempty"`
	CorrectOption  string    `json:"-"`
}

// HasOption reports whether letter is an option this question offers.
func (q *Question) HasOption(letter string) bool {
	switch letter {
	case "A", "B", "C", "D":
		return true
	case "E":
		return q.OptionE != nil && *q.OptionE != ""
	}
	return false
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID             uuid.UUID `json:"id"`
	QuestionNumber int       `json:"question_number"`
	QuestionText   string    `json:"question_text"`
	Instruction    *string   `json:"instruction,omitempty"`
	OptionA        string    `json:"option_a"`
	OptionB        string    `json:"option_b"`
	OptionC        string    `json:"option_c"`
	OptionD        string    `json:"option_d"`
	OptionE        *string   `json:"option_e,omitempty"`
}
