package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/repository"
)

// NoAnswerMessage acknowledges a save that carried no selection.
const NoAnswerMessage = "No answer selected"

// AnswerService records selections. Correctness is always derived from the
// stored question; the client never supplies it.
type AnswerService struct {
	sessions  SessionStore
	questions QuestionStore
	answers   AnswerStore
	clock     Clock
	log       zerolog.Logger
}

func NewAnswerService(stores Stores, clock Clock, log zerolog.Logger) *AnswerService {
	return &AnswerService{
		sessions:  stores.Sessions,
		questions: stores.Questions,
		answers:   stores.Answers,
		clock:     clock,
		log:       log.With().Str("component", "answer_service").Logger(),
	}
}

// Save upserts the answer for (session, question). An empty selection is
// acknowledged with Saved=false and leaves storage untouched.
func (s *AnswerService) Save(ctx context.Context, sessionID, questionID uuid.UUID, selected string) (*model.SaveAnswerResult, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, ErrSessionNotActive
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	if question.SubjectID != session.SubjectID {
		return nil, ErrQuestionNotInSession
	}

	selected = strings.ToUpper(strings.TrimSpace(selected))
	if selected == "" {
		return &model.SaveAnswerResult{Saved: false, Message: NoAnswerMessage}, nil
	}
	if !question.HasOption(selected) {
		return nil, ErrInvalidOption
	}

	answer := &model.Answer{
		ExamSessionID:  sessionID,
		QuestionID:     questionID,
		SelectedOption: selected,
		IsCorrect:      selected == question.CorrectOption,
		SavedAt:        s.clock.now(),
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}

	s.log.Debug().
		Str("session_id", sessionID.String()).
		Str("question_id", questionID.String()).
		Str("option", selected).
		Msg("Answer saved")
	return &model.SaveAnswerResult{Saved: true, AnswerID: &answer.ID}, nil
}

// SavedAnswers returns questionID → selected option for a session, in any state.
func (s *AnswerService) SavedAnswers(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]string, error) {
	if _, err := loadSession(ctx, s.sessions, sessionID); err != nil {
		return nil, err
	}

	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	out := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		if a.SelectedOption != "" {
			out[a.QuestionID] = a.SelectedOption
		}
	}
	return out, nil
}
