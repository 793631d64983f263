package model

import (
	"time"

	"github.com/google/uuid"
)

// Gender represents the student's gender.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether g is one of the accepted genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Student is the identity captured when an exam begins. Immutable once created.
type Student struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Gender    Gender    `json:"gender"`
	CreatedAt time.Time `json:"created_at"`
}
