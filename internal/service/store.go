package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// The stores below are satisfied by the pgx repositories and by storetest.Memory.
// Lookups that match nothing return repository.ErrNotFound.

type StudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
}

type SubjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error)
	GetByName(ctx context.Context, name string) (*model.Subject, error)
	List(ctx context.Context) ([]model.Subject, error)
}

type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Question, error)
}

// SessionStore persists sessions. MarkStarted and Complete apply only from the
// expected source status and report whether this call performed the write.
type SessionStore interface {
	CreateWithStudent(ctx context.Context, st *model.Student, s *model.ExamSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	MarkStarted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, c model.SessionCompletion) (bool, error)
}

// AnswerStore persists at most one answer per (session, question).
type AnswerStore interface {
	Upsert(ctx context.Context, a *model.Answer) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error)
	CountCorrect(ctx context.Context, sessionID uuid.UUID) (int, error)
}

// Stores groups every store the services need.
type Stores struct {
	Students  StudentStore
	Subjects  SubjectStore
	Questions QuestionStore
	Sessions  SessionStore
	Answers   AnswerStore
}

// Clock returns the current time. Services truncate readings to microseconds.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}
