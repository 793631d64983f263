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

// ExamSessionService drives the session lifecycle:
// pending → in_progress → completed | auto_submitted.
type ExamSessionService struct {
	stores Stores
	scorer *Scorer
	clock  Clock
	log    zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService. A nil clock uses time.Now.
func NewExamSessionService(stores Stores, scorer *Scorer, clock Clock, log zerolog.Logger) *ExamSessionService {
	return &ExamSessionService{
		stores: stores,
		scorer: scorer,
		clock:  clock,
		log:    log.With().Str("component", "exam_session_service").Logger(),
	}
}

// Create registers the student and opens a pending session for the named subject.
// Nothing is persisted when validation fails or the subject is unknown.
func (s *ExamSessionService) Create(ctx context.Context, req model.CreateSessionRequest) (*model.ExamSession, error) {
	name := strings.TrimSpace(req.StudentName)
	if len([]rune(name)) < 2 {
		return nil, fmt.Errorf("%w: student name must be at least 2 characters", ErrValidation)
	}
	if !req.Gender.Valid() {
		return nil, fmt.Errorf("%w: gender must be Male or Female", ErrValidation)
	}
	subjectName := strings.TrimSpace(req.SubjectName)
	if subjectName == "" {
		return nil, fmt.Errorf("%w: subject name is required", ErrValidation)
	}

	subject, err := s.stores.Subjects.GetByName(ctx, subjectName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}

	student := &model.Student{Name: name, Gender: req.Gender}
	session := &model.ExamSession{
		SubjectID:      subject.ID,
		TotalQuestions: subject.QuestionCount,
	}
	if err := s.stores.Sessions.CreateWithStudent(ctx, student, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("subject", subject.Name).
		Int("total_questions", session.TotalQuestions).
		Msg("Exam session created")
	return session, nil
}

// Get returns the session joined with its subject. Allowed in every state.
func (s *ExamSessionService) Get(ctx context.Context, id uuid.UUID) (*model.SessionView, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	subject, err := s.subject(ctx, session.SubjectID)
	if err != nil {
		return nil, err
	}

	remaining := s.remainingSeconds(session, subject)
	return &model.SessionView{
		ID:               session.ID,
		SubjectID:        subject.ID,
		SubjectName:      subject.Name,
		DurationMinutes:  subject.DurationMinutes,
		TotalQuestions:   session.TotalQuestions,
		StartTime:        session.StartTime,
		EndTime:          session.EndTime,
		TimeTaken:        session.TimeTaken,
		Status:           session.Status,
		RemainingSeconds: &remaining,
	}, nil
}

func (s *ExamSessionService) remainingSeconds(session *model.ExamSession, subject *model.Subject) int {
	total := subject.DurationMinutes * 60
	switch {
	case session.Status.IsTerminal():
		return 0
	case session.StartTime == nil:
		return total
	}
	left := total - ElapsedSeconds(*session.StartTime, s.clock.now())
	if left < 0 {
		return 0
	}
	return left
}

// Start moves a pending session to in_progress and fixes its start time.
// Repeating it on a started session returns the original start time.
func (s *ExamSessionService) Start(ctx context.Context, id uuid.UUID) (*model.StartResult, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if res, err := startOutcome(session); res != nil || err != nil {
		return res, err
	}

	now := s.clock.now()
	ok, err := s.stores.Sessions.MarkStarted(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("mark session started: %w", err)
	}
	if ok {
		s.log.Info().Str("session_id", id.String()).Time("start_time", now).Msg("Exam session started")
		return &model.StartResult{StartTime: now}, nil
	}

	// Lost a race with another start or submit.
	session, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if res, err := startOutcome(session); res != nil || err != nil {
		return res, err
	}
	return nil, fmt.Errorf("start session %s: status still %s", id, session.Status)
}

// startOutcome resolves Start for a session that is no longer pending.
func startOutcome(session *model.ExamSession) (*model.StartResult, error) {
	switch {
	case session.Status.IsTerminal():
		return nil, ErrSessionAlreadyCompleted
	case session.Status == model.SessionStatusInProgress && session.StartTime != nil:
		return &model.StartResult{StartTime: *session.StartTime, AlreadyStarted: true}, nil
	}
	return nil, nil
}

// Submit ends an in-progress session and records its score. On a session that
// is already terminal it returns the stored result without recomputing anything.
func (s *ExamSessionService) Submit(ctx context.Context, id uuid.UUID, trigger model.SubmitTrigger) (*model.SubmitResult, error) {
	if trigger == "" {
		trigger = model.SubmitTriggerManual
	}
	if !trigger.Valid() {
		return nil, fmt.Errorf("%w: unknown submit trigger %q", ErrValidation, trigger)
	}

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return storedSubmitResult(session), nil
	}
	status := trigger.TerminalStatus()
	if session.StartTime == nil || !session.Status.CanTransitionTo(status) {
		return nil, ErrSessionNotStarted
	}

	end := s.clock.now()
	score, err := s.scorer.Score(ctx, session, end)
	if err != nil {
		return nil, err
	}

	ok, err := s.stores.Sessions.Complete(ctx, id, model.SessionCompletion{
		Status:    status,
		EndTime:   end,
		Score:     score.CorrectCount,
		TimeTaken: score.TimeTakenSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !ok {
		session, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if session.Status.IsTerminal() {
			return storedSubmitResult(session), nil
		}
		return nil, ErrSessionNotStarted
	}

	s.log.Info().
		Str("session_id", id.String()).
		Str("status", string(status)).
		Int("correct", score.CorrectCount).
		Int("total", score.TotalQuestions).
		Int("time_taken", score.TimeTakenSeconds).
		Msg("Exam session submitted")

	return &model.SubmitResult{
		Status:           status,
		CorrectCount:     score.CorrectCount,
		TotalQuestions:   score.TotalQuestions,
		TimeTakenSeconds: score.TimeTakenSeconds,
	}, nil
}

func storedSubmitResult(session *model.ExamSession) *model.SubmitResult {
	res := &model.SubmitResult{
		Status:           session.Status,
		TotalQuestions:   session.TotalQuestions,
		AlreadySubmitted: true,
	}
	if session.Score != nil {
		res.CorrectCount = *session.Score
	}
	if session.TimeTaken != nil {
		res.TimeTakenSeconds = *session.TimeTaken
	}
	return res
}

// Results returns the result sheet. Sessions that have not been submitted
// report a score of zero with their current status.
func (s *ExamSessionService) Results(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	student, err := s.stores.Students.GetByID(ctx, session.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	subject, err := s.subject(ctx, session.SubjectID)
	if err != nil {
		return nil, err
	}

	res := &model.ExamResult{
		SessionID:      session.ID,
		StudentName:    student.Name,
		Gender:         student.Gender,
		SubjectName:    subject.Name,
		Status:         session.Status,
		TotalQuestions: session.TotalQuestions,
	}
	if session.Score != nil {
		res.Score = *session.Score
	}
	if session.TimeTaken != nil {
		res.TimeTakenSeconds = *session.TimeTaken
	}
	res.Percentage = Percentage(res.Score, res.TotalQuestions)
	return res, nil
}

func (s *ExamSessionService) load(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return loadSession(ctx, s.stores.Sessions, id)
}

func (s *ExamSessionService) subject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	subject, err := s.stores.Subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return subject, nil
}

func loadSession(ctx context.Context, sessions SessionStore, id uuid.UUID) (*model.ExamSession, error) {
	session, err := sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
