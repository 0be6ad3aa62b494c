package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// GradeRepository is a narrow read adapter over the grading subsystem.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// AverageInWindow returns the student's mean grade over [from, to), or nil
// when nothing was graded in the window.
func (r *GradeRepository) AverageInWindow(ctx context.Context, studentID string, from, to time.Time) (*float64, error) {
	const query = `SELECT AVG(grade_value)
FROM grade_entries
WHERE student_id = $1 AND graded_at >= $2 AND graded_at < $3`
	var avg sql.NullFloat64
	if err := r.db.QueryRowxContext(ctx, query, studentID, from, to).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average grade: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	value := avg.Float64
	return &value, nil
}
