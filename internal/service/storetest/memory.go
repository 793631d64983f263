// Package storetest provides an in-memory implementation of the service stores
// with the same guarded-transition semantics as the PostgreSQL repositories.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/repository"
	"github.com/stemsi/exstem-cbt/internal/service"
)

type answerKey struct {
	session  uuid.UUID
	question uuid.UUID
}

// Memory holds every entity in maps guarded by one mutex.
type Memory struct {
	mu        sync.Mutex
	students  map[uuid.UUID]model.Student
	subjects  map[uuid.UUID]model.Subject
	questions map[uuid.UUID]model.Question
	sessions  map[uuid.UUID]model.ExamSession
	answers   map[answerKey]model.Answer
}

func New() *Memory {
	return &Memory{
		students:  make(map[uuid.UUID]model.Student),
		subjects:  make(map[uuid.UUID]model.Subject),
		questions: make(map[uuid.UUID]model.Question),
		sessions:  make(map[uuid.UUID]model.ExamSession),
		answers:   make(map[answerKey]model.Answer),
	}
}

// Stores exposes m through the service store interfaces.
func (m *Memory) Stores() service.Stores {
	return service.Stores{
		Students:  studentStore{m},
		Subjects:  subjectStore{m},
		Questions: questionStore{m},
		Sessions:  sessionStore{m},
		Answers:   answerStore{m},
	}
}

// ─── Fixtures ──────────────────────────────────────────────────────────

// AddSubject stores a subject and returns it.
func (m *Memory) AddSubject(name string, durationMinutes, questionCount int) model.Subject {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Subject{ID: uuid.New(), Name: name, DurationMinutes: durationMinutes, QuestionCount: questionCount}
	m.subjects[s.ID] = s
	return s
}

// AddQuestion stores a four-option question with the given key.
func (m *Memory) AddQuestion(subjectID uuid.UUID, number int, correct string) model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := model.Question{
		ID:             uuid.New(),
		SubjectID:      subjectID,
		QuestionNumber: number,
		QuestionText:   "Question " + uuid.NewString()[:8],
		OptionA:        "alpha",
		OptionB:        "bravo",
		OptionC:        "charlie",
		OptionD:        "delta",
		CorrectOption:  correct,
	}
	m.questions[q.ID] = q
	return q
}

// PutQuestion stores q as given.
func (m *Memory) PutQuestion(q model.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
}

// DeleteStudent removes a student, leaving its sessions dangling.
func (m *Memory) DeleteStudent(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.students, id)
}

// Session returns a copy of the stored session.
func (m *Memory) Session(id uuid.UUID) (model.ExamSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// SessionCount returns the number of stored sessions.
func (m *Memory) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Answers returns every answer row of a session.
func (m *Memory) Answers(sessionID uuid.UUID) []model.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Answer
	for k, a := range m.answers {
		if k.session == sessionID {
			out = append(out, a)
		}
	}
	return out
}

// ─── Stores ────────────────────────────────────────────────────────────

type studentStore struct{ m *Memory }

func (s studentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st, ok := s.m.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

type subjectStore struct{ m *Memory }

func (s subjectStore) GetByID(_ context.Context, id uuid.UUID) (*model.Subject, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sub, ok := s.m.subjects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (s subjectStore) GetByName(_ context.Context, name string) (*model.Subject, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, sub := range s.m.subjects {
		if sub.Name == name {
			return &sub, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s subjectStore) List(context.Context) ([]model.Subject, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Subject
	for _, sub := range s.m.subjects {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type questionStore struct{ m *Memory }

func (s questionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q, ok := s.m.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (s questionStore) ListBySubject(_ context.Context, subjectID uuid.UUID) ([]model.Question, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Question
	for _, q := range s.m.questions {
		if q.SubjectID == subjectID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

type sessionStore struct{ m *Memory }

func (s sessionStore) CreateWithStudent(_ context.Context, st *model.Student, es *model.ExamSession) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Microsecond)

	st.ID = uuid.New()
	st.CreatedAt = now
	s.m.students[st.ID] = *st

	es.ID = uuid.New()
	es.StudentID = st.ID
	es.Status = model.SessionStatusPending
	es.CreatedAt = now
	s.m.sessions[es.ID] = *es
	return nil
}

func (s sessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	es, ok := s.m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &es, nil
}

func (s sessionStore) MarkStarted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	es, ok := s.m.sessions[id]
	if !ok || es.Status != model.SessionStatusPending {
		return false, nil
	}
	es.Status = model.SessionStatusInProgress
	es.StartTime = &at
	s.m.sessions[id] = es
	return true, nil
}

func (s sessionStore) Complete(_ context.Context, id uuid.UUID, c model.SessionCompletion) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	es, ok := s.m.sessions[id]
	if !ok || es.Status != model.SessionStatusInProgress || es.StartTime == nil {
		return false, nil
	}
	end, score, taken := c.EndTime, c.Score, c.TimeTaken
	es.Status = c.Status
	es.EndTime = &end
	es.Score = &score
	es.TimeTaken = &taken
	s.m.sessions[id] = es
	return true, nil
}

type answerStore struct{ m *Memory }

func (s answerStore) Upsert(_ context.Context, a *model.Answer) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	k := answerKey{a.ExamSessionID, a.QuestionID}
	if prev, ok := s.m.answers[k]; ok {
		a.ID = prev.ID
	} else {
		a.ID = uuid.New()
	}
	s.m.answers[k] = *a
	return nil
}

func (s answerStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Answer
	for k, a := range s.m.answers {
		if k.session == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.Before(out[j].SavedAt) })
	return out, nil
}

func (s answerStore) CountCorrect(_ context.Context, sessionID uuid.UUID) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for k, a := range s.m.answers {
		if k.session == sessionID && a.IsCorrect {
			n++
		}
	}
	return n, nil
}
