package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// SubjectRepository handles subject data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// GetByID retrieves a subject by id.
func (r *SubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, duration_minutes, question_count FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.QuestionCount)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// GetByName retrieves a subject by its exact name.
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, duration_minutes, question_count FROM subjects WHERE name = $1`, name,
	).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.QuestionCount)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// List returns all subjects ordered by name.
func (r *SubjectRepository) List(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, duration_minutes, question_count FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.QuestionCount); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
