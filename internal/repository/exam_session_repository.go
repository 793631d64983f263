package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// ExamSessionRepository handles exam session data access.
// Lifecycle writes are guarded by the current status so concurrent callers
// cannot apply the same transition twice.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateWithStudent inserts the student and its pending session in one transaction.
func (r *ExamSessionRepository) CreateWithStudent(ctx context.Context, st *model.Student, s *model.ExamSession) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO students (name, gender) VALUES ($1, $2)
			 RETURNING id, created_at`,
			st.Name, st.Gender,
		).Scan(&st.ID, &st.CreatedAt); err != nil {
			return fmt.Errorf("insert student: %w", err)
		}

		s.StudentID = st.ID
		s.Status = model.SessionStatusPending
		if err := tx.QueryRow(ctx,
			`INSERT INTO exam_sessions (student_id, subject_id, status, total_questions)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			s.StudentID, s.SubjectID, s.Status, s.TotalQuestions,
		).Scan(&s.ID, &s.CreatedAt); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a session by id.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, subject_id, start_time, end_time, status,
		        total_questions, score, time_taken, created_at
		 FROM exam_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.StudentID, &s.SubjectID, &s.StartTime, &s.EndTime, &s.Status,
		&s.TotalQuestions, &s.Score, &s.TimeTaken, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// MarkStarted moves a pending session to in_progress with the given start time.
// It reports false when the session was not pending (already started, finished or missing).
func (r *ExamSessionRepository) MarkStarted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query, args, err := r.sb.Update("exam_sessions").
		Set("status", model.SessionStatusInProgress).
		Set("start_time", at).
		Where(squirrel.Eq{"id": id, "status": model.SessionStatusPending}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build start query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete records the final result of an in-progress session.
// It reports false when the session was not in progress.
func (r *ExamSessionRepository) Complete(ctx context.Context, id uuid.UUID, c model.SessionCompletion) (bool, error) {
	query, args, err := r.sb.Update("exam_sessions").
		Set("status", c.Status).
		Set("end_time", c.EndTime).
		Set("score", c.Score).
		Set("time_taken", c.TimeTaken).
		Where(squirrel.Eq{"id": id, "status": model.SessionStatusInProgress}).
		Where(squirrel.NotEq{"start_time": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build complete query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
