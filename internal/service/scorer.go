package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// Score is the aggregate of a session's recorded answers.
type Score struct {
	CorrectCount     int
	TotalQuestions   int
	Percentage       float64
	TimeTakenSeconds int
}

// Scorer aggregates answers into a final score. It trusts the is_correct flag
// persisted with each answer and does not re-check against the question key.
type Scorer struct {
	answers AnswerStore
}

func NewScorer(answers AnswerStore) *Scorer {
	return &Scorer{answers: answers}
}

// Score computes the result of a started session as if it ended at end.
func (s *Scorer) Score(ctx context.Context, session *model.ExamSession, end time.Time) (Score, error) {
	if session.StartTime == nil {
		return Score{}, ErrSessionNotStarted
	}

	correct, err := s.answers.CountCorrect(ctx, session.ID)
	if err != nil {
		return Score{}, fmt.Errorf("count correct answers: %w", err)
	}

	return Score{
		CorrectCount:     correct,
		TotalQuestions:   session.TotalQuestions,
		Percentage:       Percentage(correct, session.TotalQuestions),
		TimeTakenSeconds: ElapsedSeconds(*session.StartTime, end),
	}, nil
}

// Percentage returns 100*correct/total, or 0 for an empty paper.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

// ElapsedSeconds returns whole seconds between start and end, never negative.
func ElapsedSeconds(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
