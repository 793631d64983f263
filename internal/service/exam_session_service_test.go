package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/service"
)

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	if s.Status != model.SessionStatusPending {
		t.Errorf("status = %s, want pending", s.Status)
	}
	if s.StartTime != nil {
		t.Errorf("start time = %v, want nil", s.StartTime)
	}
	if s.TotalQuestions != 5 || s.SubjectID != f.subject.ID || s.StudentID == uuid.Nil {
		t.Errorf("unexpected session %+v", s)
	}
}

func TestCreateSessionRejectsBeforePersisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  model.CreateSessionRequest
		want error
	}{
		{"short name", model.CreateSessionRequest{StudentName: " A ", Gender: model.GenderMale, SubjectName: "Physics"}, service.ErrValidation},
		{"bad gender", model.CreateSessionRequest{StudentName: "Bola", Gender: "Other", SubjectName: "Physics"}, service.ErrValidation},
		{"no subject", model.CreateSessionRequest{StudentName: "Bola", Gender: model.GenderMale}, service.ErrValidation},
		{"unknown subject", model.CreateSessionRequest{StudentName: "Bola", Gender: model.GenderMale, SubjectName: "Astrology"}, service.ErrSubjectNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sessions.Create(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if n := f.mem.SessionCount(); n != 0 {
		t.Errorf("%d sessions persisted after rejected creates", n)
	}
}

func TestTotalQuestionsIsSnapshot(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	// Adding questions later does not change the session's paper size.
	f.mem.AddQuestion(f.subject.ID, 6, "A")

	id := s.ID
	if _, err := f.sessions.Start(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	res, err := f.sessions.Submit(context.Background(), id, model.SubmitTriggerManual)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 5 {
		t.Errorf("total = %d, want 5", res.TotalQuestions)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)

	first, err := f.sessions.Start(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.AlreadyStarted {
		t.Error("first start reported already started")
	}

	f.clock.Advance(42 * time.Second)
	second, err := f.sessions.Start(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !second.AlreadyStarted {
		t.Error("second start not reported as already started")
	}
	if !second.StartTime.Equal(first.StartTime) {
		t.Errorf("start time moved: %v → %v", first.StartTime, second.StartTime)
	}

	stored, _ := f.mem.Session(s.ID)
	if stored.Status != model.SessionStatusInProgress || !stored.StartTime.Equal(first.StartTime) {
		t.Errorf("stored session %+v", stored)
	}
}

func TestStartAfterTerminalIsRejected(t *testing.T) {
	for _, trigger := range []model.SubmitTrigger{model.SubmitTriggerManual, model.SubmitTriggerTimeUp} {
		t.Run(string(trigger), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id := f.started(t)
			if _, err := f.sessions.Submit(ctx, id, trigger); err != nil {
				t.Fatal(err)
			}
			before, _ := f.mem.Session(id)

			_, err := f.sessions.Start(ctx, id)
			if !errors.Is(err, service.ErrSessionAlreadyCompleted) {
				t.Fatalf("err = %v, want ErrSessionAlreadyCompleted", err)
			}

			after, _ := f.mem.Session(id)
			if after.Status != before.Status || !after.StartTime.Equal(*before.StartTime) || !after.EndTime.Equal(*before.EndTime) {
				t.Errorf("session mutated: %+v → %+v", before, after)
			}
		})
	}
}

func TestStartUnknownSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.sessions.Start(context.Background(), uuid.New()); !errors.Is(err, service.ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// racingSessions starts the session on the caller's behalf just before the
// caller's own guarded write, as a concurrent request would.
type racingSessions struct {
	service.SessionStore
	winnerAt time.Time
}

func (r racingSessions) MarkStarted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if _, err := r.SessionStore.MarkStarted(ctx, id, r.winnerAt); err != nil {
		return false, err
	}
	return r.SessionStore.MarkStarted(ctx, id, at)
}

func TestStartLosingRaceReturnsWinnerTime(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	stores := f.mem.Stores()
	winner := f.clock.Now().Add(-time.Second)
	stores.Sessions = racingSessions{SessionStore: stores.Sessions, winnerAt: winner}
	svc := service.NewExamSessionService(stores, service.NewScorer(stores.Answers), f.clock.Now, zerolog.Nop())

	res, err := svc.Start(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.AlreadyStarted || !res.StartTime.Equal(winner) {
		t.Errorf("result = %+v, want winner's start %v", res, winner)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	_, err := f.sessions.Submit(context.Background(), s.ID, model.SubmitTriggerManual)
	if !errors.Is(err, service.ErrSessionNotStarted) {
		t.Fatalf("err = %v, want ErrSessionNotStarted", err)
	}
	stored, _ := f.mem.Session(s.ID)
	if stored.Status != model.SessionStatusPending {
		t.Errorf("status = %s", stored.Status)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.started(t)
	f.save(t, id, f.questions[0], "B")

	f.clock.Advance(90 * time.Second)
	first, err := f.sessions.Submit(ctx, id, model.SubmitTriggerManual)
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := f.mem.Session(id)
	end := *stored.EndTime

	f.clock.Advance(time.Hour)
	second, err := f.sessions.Submit(ctx, id, model.SubmitTriggerTimeUp)
	if err != nil {
		t.Fatal(err)
	}

	if first.AlreadySubmitted || !second.AlreadySubmitted {
		t.Errorf("already_submitted flags: %v, %v", first.AlreadySubmitted, second.AlreadySubmitted)
	}
	if second.CorrectCount != first.CorrectCount || second.TimeTakenSeconds != first.TimeTakenSeconds || second.Status != first.Status {
		t.Errorf("second submit %+v differs from first %+v", second, first)
	}
	stored, _ = f.mem.Session(id)
	if !stored.EndTime.Equal(end) || stored.Status != model.SessionStatusCompleted {
		t.Errorf("second submit changed session: %+v", stored)
	}
}

func TestTimeUpSubmitIsAutoSubmitted(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	f.clock.Advance(60 * time.Minute)

	res, err := f.sessions.Submit(context.Background(), id, model.SubmitTriggerTimeUp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.SessionStatusAutoSubmitted || res.TimeTakenSeconds != 3600 {
		t.Errorf("result = %+v", res)
	}
}

func TestScoreExcludesUnanswered(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	for _, q := range f.questions[:3] {
		f.save(t, id, q, q.CorrectOption)
	}

	res, err := f.sessions.Submit(context.Background(), id, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectCount != 3 || res.TotalQuestions != 5 {
		t.Errorf("score = %d/%d, want 3/5", res.CorrectCount, res.TotalQuestions)
	}
	if res.Status != model.SessionStatusCompleted {
		t.Errorf("empty trigger status = %s, want completed", res.Status)
	}
}

func TestFullSessionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)
	if s.StartTime != nil || s.Status != model.SessionStatusPending {
		t.Fatalf("new session %+v", s)
	}

	start, err := f.sessions.Start(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	t0 := start.StartTime

	q3 := f.questions[2]
	q3.CorrectOption = "B"
	f.mem.PutQuestion(q3)

	f.save(t, s.ID, q3, "B")
	rows := f.mem.Answers(s.ID)
	if len(rows) != 1 || !rows[0].IsCorrect {
		t.Fatalf("after first save: %+v", rows)
	}

	f.save(t, s.ID, q3, "C")
	rows = f.mem.Answers(s.ID)
	if len(rows) != 1 || rows[0].IsCorrect || rows[0].SelectedOption != "C" {
		t.Fatalf("after second save: %+v", rows)
	}

	f.clock.Advance(125 * time.Second)
	res, err := f.sessions.Submit(ctx, s.ID, model.SubmitTriggerManual)
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectCount != 0 || res.TotalQuestions != 5 || res.TimeTakenSeconds != 125 {
		t.Errorf("result = %+v, want {0 5 125}", res)
	}

	stored, _ := f.mem.Session(s.ID)
	if !stored.StartTime.Equal(t0) {
		t.Errorf("start time changed to %v", stored.StartTime)
	}
}

func TestTimeTakenIsFloored(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	f.clock.Advance(10*time.Second + 999*time.Millisecond)

	res, err := f.sessions.Submit(context.Background(), id, model.SubmitTriggerManual)
	if err != nil {
		t.Fatal(err)
	}
	if res.TimeTakenSeconds != 10 {
		t.Errorf("time taken = %d, want 10", res.TimeTakenSeconds)
	}
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)

	view, err := f.sessions.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.SubjectName != "Physics" || view.DurationMinutes != 60 || *view.RemainingSeconds != 3600 {
		t.Errorf("pending view = %+v", view)
	}

	if _, err := f.sessions.Start(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(100 * time.Second)
	view, err = f.sessions.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != model.SessionStatusInProgress || *view.RemainingSeconds != 3500 {
		t.Errorf("running view = %+v", view)
	}

	f.clock.Advance(2 * time.Hour)
	view, _ = f.sessions.Get(ctx, s.ID)
	if *view.RemainingSeconds != 0 {
		t.Errorf("overdue remaining = %d, want 0", *view.RemainingSeconds)
	}

	if _, err := f.sessions.Get(ctx, uuid.New()); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("unknown session err = %v", err)
	}
}

func TestResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.started(t)
	f.save(t, id, f.questions[0], "B")
	f.save(t, id, f.questions[1], "A")
	f.clock.Advance(5 * time.Minute)
	if _, err := f.sessions.Submit(ctx, id, model.SubmitTriggerManual); err != nil {
		t.Fatal(err)
	}

	res, err := f.sessions.Results(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if res.StudentName != "Ada Obi" || res.Gender != model.GenderFemale || res.SubjectName != "Physics" {
		t.Errorf("identity = %+v", res)
	}
	if res.Score != 2 || res.TotalQuestions != 5 || res.Percentage != 40 || res.TimeTakenSeconds != 300 {
		t.Errorf("score = %+v", res)
	}
}

func TestResultsBeforeSubmit(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	res, err := f.sessions.Results(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.SessionStatusPending || res.Score != 0 || res.Percentage != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestResultsMissingStudent(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)
	f.mem.DeleteStudent(s.StudentID)

	if _, err := f.sessions.Results(context.Background(), s.ID); !errors.Is(err, service.ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestSubmitUnknownTrigger(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)

	_, err := f.sessions.Submit(context.Background(), id, "proctor")
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	stored, _ := f.mem.Session(id)
	if stored.Status != model.SessionStatusInProgress {
		t.Errorf("status = %s", stored.Status)
	}
}
