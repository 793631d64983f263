package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
)

type SubjectService struct {
	subjects SubjectStore
	log      zerolog.Logger
}

func NewSubjectService(subjects SubjectStore, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjects: subjects,
		log:      log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}
