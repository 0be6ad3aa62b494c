package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

// AssignmentRepository is a narrow read adapter over the assignment subsystem.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Metrics aggregates submission facts for assignments due or submitted in
// [from, to). A window with no matching rows yields the zero value.
func (r *AssignmentRepository) Metrics(ctx context.Context, studentID string, from, to time.Time) (models.AssignmentMetrics, error) {
	const query = `SELECT COALESCE(COUNT(sub.id), 0) AS submitted,
       COALESCE(COUNT(sub.id) FILTER (WHERE sub.submitted_at <= a.due_at), 0) AS on_time
FROM assignments a
JOIN assignment_submissions sub ON sub.assignment_id = a.id AND sub.student_id = $1
WHERE (a.due_at >= $2 AND a.due_at < $3) OR (sub.submitted_at >= $2 AND sub.submitted_at < $3)`
	var m models.AssignmentMetrics
	if err := r.db.QueryRowxContext(ctx, query, studentID, from, to).Scan(&m.Submitted, &m.OnTime); err != nil {
		return models.AssignmentMetrics{}, fmt.Errorf("assignment metrics: %w", err)
	}
	if m.Submitted > 0 {
		m.OnTimeRate = float64(m.OnTime) / float64(m.Submitted) * 100
	}
	return m, nil
}
