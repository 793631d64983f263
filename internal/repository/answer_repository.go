package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// AnswerRepository handles answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert creates or overwrites the answer for (session, question).
// The latest write wins; a.ID is set to the surviving row's id.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.Answer) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO answers (exam_session_id, question_id, selected_option, is_correct, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_session_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option,
		     is_correct = EXCLUDED.is_correct,
		     saved_at = EXCLUDED.saved_at
		 RETURNING id`,
		a.ExamSessionID, a.QuestionID, a.SelectedOption, a.IsCorrect, a.SavedAt,
	).Scan(&a.ID)
}

// ListBySession retrieves every answer recorded for a session.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	query, args, err := r.sb.
		Select("id", "exam_session_id", "question_id", "selected_option", "is_correct", "saved_at").
		From("answers").
		Where(squirrel.Eq{"exam_session_id": sessionID}).
		Where(squirrel.NotEq{"selected_option": nil}).
		OrderBy("saved_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list answers query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.ExamSessionID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.SavedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountCorrect counts answers flagged correct for a session.
func (r *AnswerRepository) CountCorrect(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM answers WHERE exam_session_id = $1 AND is_correct`, sessionID,
	).Scan(&n)
	return n, err
}
