package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/repository"
	"github.com/stemsi/exstem-cbt/internal/shuffle"
)

// PaperService builds the question paper a session sees: answer key stripped,
// order derived from the session id, numbers rewritten to 1..N.
type PaperService struct {
	sessions    SessionStore
	subjects    SubjectStore
	questions   QuestionStore
	rdb         *redis.Client
	ttl         time.Duration
	nonShuffled map[string]struct{}
	log         zerolog.Logger
}

// NewPaperService creates a new PaperService. rdb may be nil, which disables caching.
// Subjects named in nonShuffled (case-insensitive) keep their stored order.
func NewPaperService(stores Stores, rdb *redis.Client, ttl time.Duration, nonShuffled []string, log zerolog.Logger) *PaperService {
	set := make(map[string]struct{}, len(nonShuffled))
	for _, name := range nonShuffled {
		set[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return &PaperService{
		sessions:    stores.Sessions,
		subjects:    stores.Subjects,
		questions:   stores.Questions,
		rdb:         rdb,
		ttl:         ttl,
		nonShuffled: set,
		log:         log.With().Str("component", "paper_service").Logger(),
	}
}

// Shuffled reports whether questions of the named subject are reordered.
func (s *PaperService) Shuffled(subjectName string) bool {
	_, skip := s.nonShuffled[strings.ToLower(strings.TrimSpace(subjectName))]
	return !skip
}

// SessionQuestions returns the paper for a session that has been started.
func (s *PaperService) SessionQuestions(ctx context.Context, sessionID uuid.UUID) ([]model.QuestionForStudent, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusPending || session.StartTime == nil {
		return nil, ErrSessionNotStarted
	}

	subject, err := s.subjects.GetByID(ctx, session.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}

	paper, err := s.subjectPaper(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	if !s.Shuffled(subject.Name) {
		return paper, nil
	}
	return Arrange(paper, session.ID.String()), nil
}

// Arrange shuffles the paper with seed and renumbers it from 1.
func Arrange(paper []model.QuestionForStudent, seed string) []model.QuestionForStudent {
	out := shuffle.Shuffle(paper, seed)
	for i := range out {
		out[i].QuestionNumber = i + 1
	}
	return out
}

// subjectPaper returns the subject's questions in stored order without the key,
// reading through the Redis cache when one is configured.
func (s *PaperService) subjectPaper(ctx context.Context, subjectID uuid.UUID) ([]model.QuestionForStudent, error) {
	key := config.CacheKey.SubjectPaperKey(subjectID.String())

	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var paper []model.QuestionForStudent
			if err := json.Unmarshal(data, &paper); err == nil {
				return paper, nil
			}
			s.log.Warn().Str("key", key).Msg("Discarding unreadable cached paper")
		case !errors.Is(err, redis.Nil):
			s.log.Warn().Err(err).Str("key", key).Msg("Paper cache read failed, falling back to database")
		}
	}

	paper, err := s.loadPaper(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(paper); err == nil {
			if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Paper cache write failed")
			}
		}
	}
	return paper, nil
}

func (s *PaperService) loadPaper(ctx context.Context, subjectID uuid.UUID) ([]model.QuestionForStudent, error) {
	questions, err := s.questions.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	paper := make([]model.QuestionForStudent, 0, len(questions))
	if err := copier.Copy(&paper, &questions); err != nil {
		return nil, fmt.Errorf("strip answer key: %w", err)
	}
	return paper, nil
}

// Prewarm loads every subject's paper into the cache on startup.
func (s *PaperService) Prewarm(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}

	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	warmed := 0
	for _, sub := range subjects {
		paper, err := s.loadPaper(ctx, sub.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("subject", sub.Name).Msg("Failed to warm paper, skipping")
			continue
		}
		data, err := json.Marshal(paper)
		if err != nil {
			continue
		}
		if err := s.rdb.Set(ctx, config.CacheKey.SubjectPaperKey(sub.ID.String()), data, s.ttl).Err(); err != nil {
			return fmt.Errorf("cache paper: %w", err)
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(subjects)).Msg("Paper cache prewarmed")
	return nil
}
