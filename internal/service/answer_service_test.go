package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/service"
)

func TestSaveAnswerUpserts(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	q := f.questions[0] // key B

	first := f.save(t, id, q, "B")
	second := f.save(t, id, q, "D")

	if !first.Saved || !second.Saved {
		t.Fatalf("saved flags %v %v", first.Saved, second.Saved)
	}
	if *first.AnswerID != *second.AnswerID {
		t.Errorf("upsert created a second row: %s vs %s", first.AnswerID, second.AnswerID)
	}

	rows := f.mem.Answers(id)
	if len(rows) != 1 {
		t.Fatalf("%d rows, want 1", len(rows))
	}
	if rows[0].SelectedOption != "D" || rows[0].IsCorrect {
		t.Errorf("row = %+v, want D incorrect", rows[0])
	}
}

func TestSaveAnswerEmptySelectionIsNoop(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)

	for _, sel := range []string{"", "   "} {
		res := f.save(t, id, f.questions[1], sel)
		if res.Saved || res.AnswerID != nil || res.Message != service.NoAnswerMessage {
			t.Errorf("selection %q: result %+v", sel, res)
		}
	}
	if rows := f.mem.Answers(id); len(rows) != 0 {
		t.Errorf("no-op created rows: %+v", rows)
	}
}

func TestSaveAnswerEmptyKeepsEarlierSelection(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	f.save(t, id, f.questions[1], "A")
	f.save(t, id, f.questions[1], "")

	rows := f.mem.Answers(id)
	if len(rows) != 1 || rows[0].SelectedOption != "A" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSaveAnswerNormalizesCase(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	f.save(t, id, f.questions[0], " b ")

	rows := f.mem.Answers(id)
	if len(rows) != 1 || rows[0].SelectedOption != "B" || !rows[0].IsCorrect {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSaveAnswerErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.create(t)
	running := f.started(t)
	finished := f.started(t)
	if _, err := f.sessions.Submit(ctx, finished, model.SubmitTriggerTimeUp); err != nil {
		t.Fatal(err)
	}

	other := f.mem.AddSubject("Chemistry", 60, 1)
	foreign := f.mem.AddQuestion(other.ID, 1, "A")

	withE := f.mem.AddQuestion(f.subject.ID, 6, "E")
	e := "epsilon"
	withE.OptionE = &e
	f.mem.PutQuestion(withE)

	cases := []struct {
		name     string
		session  uuid.UUID
		question uuid.UUID
		option   string
		want     error
	}{
		{"unknown session", uuid.New(), f.questions[0].ID, "A", service.ErrSessionNotFound},
		{"pending session", pending.ID, f.questions[0].ID, "A", service.ErrSessionNotActive},
		{"finished session", finished, f.questions[0].ID, "A", service.ErrSessionNotActive},
		{"finished session empty selection", finished, f.questions[0].ID, "", service.ErrSessionNotActive},
		{"unknown question", running, uuid.New(), "A", service.ErrQuestionNotFound},
		{"question of another subject", running, foreign.ID, "A", service.ErrQuestionNotInSession},
		{"option E not offered", running, f.questions[0].ID, "E", service.ErrInvalidOption},
		{"not a letter", running, f.questions[0].ID, "Z", service.ErrInvalidOption},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.answers.Save(ctx, tc.session, tc.question, tc.option)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	res := f.save(t, running, withE, "E")
	if !res.Saved {
		t.Error("option E rejected on a question that offers it")
	}
	if rows := f.mem.Answers(finished); len(rows) != 0 {
		t.Errorf("finished session gained rows: %+v", rows)
	}
}

func TestCorrectnessFollowsStoredKey(t *testing.T) {
	f := newFixture(t)
	id := f.started(t)
	q := f.questions[3] // key D

	f.save(t, id, q, "A")
	if rows := f.mem.Answers(id); rows[0].IsCorrect {
		t.Fatal("wrong option marked correct")
	}
	f.save(t, id, q, "D")
	if rows := f.mem.Answers(id); !rows[0].IsCorrect {
		t.Fatal("right option marked wrong")
	}
}

func TestSavedAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.started(t)
	f.save(t, id, f.questions[0], "C")
	f.save(t, id, f.questions[2], "A")
	f.save(t, id, f.questions[2], "B")

	got, err := f.answers.SavedAnswers(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := map[uuid.UUID]string{f.questions[0].ID: "C", f.questions[2].ID: "B"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("answer[%s] = %q, want %q", k, got[k], v)
		}
	}

	if _, err := f.answers.SavedAnswers(ctx, uuid.New()); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("unknown session err = %v", err)
	}
}
