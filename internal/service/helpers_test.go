package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/service/storetest"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	mem      *storetest.Memory
	clock    *fakeClock
	sessions *service.ExamSessionService
	answers  *service.AnswerService
	papers   *service.PaperService
	events   *service.ClientEventService

	subject   model.Subject
	questions []model.Question // q1..q5, keys B A C D A
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storetest.New()
	clock := newFakeClock()
	stores := mem.Stores()
	log := zerolog.Nop()

	f := &fixture{
		mem:      mem,
		clock:    clock,
		sessions: service.NewExamSessionService(stores, service.NewScorer(stores.Answers), clock.Now, log),
		answers:  service.NewAnswerService(stores, clock.Now, log),
		papers:   service.NewPaperService(stores, nil, time.Minute, []string{"English"}, log),
		events:   service.NewClientEventService(stores.Sessions, nil, clock.Now, log),
	}

	f.subject = mem.AddSubject("Physics", 60, 5)
	for i, key := range []string{"B", "A", "C", "D", "A"} {
		f.questions = append(f.questions, mem.AddQuestion(f.subject.ID, i+1, key))
	}
	return f
}

func (f *fixture) create(t *testing.T) *model.ExamSession {
	t.Helper()
	s, err := f.sessions.Create(context.Background(), model.CreateSessionRequest{
		StudentName: "Ada Obi",
		Gender:      model.GenderFemale,
		SubjectName: f.subject.Name,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

func (f *fixture) started(t *testing.T) uuid.UUID {
	t.Helper()
	s := f.create(t)
	if _, err := f.sessions.Start(context.Background(), s.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s.ID
}

func (f *fixture) save(t *testing.T, sessionID uuid.UUID, q model.Question, option string) *model.SaveAnswerResult {
	t.Helper()
	res, err := f.answers.Save(context.Background(), sessionID, q.ID, option)
	if err != nil {
		t.Fatalf("Save(%s): %v", option, err)
	}
	return res
}
