package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// StudentRepository resolves batch cohorts against the student directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ActiveIDs returns every active student's user id.
func (r *StudentRepository) ActiveIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT sp.user_id FROM students sp
JOIN users u ON u.id = sp.user_id
WHERE sp.active AND u.active
ORDER BY sp.user_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("active student ids: %w", err)
	}
	return ids, nil
}

// RecentlyActiveIDs returns students with activity since the cutoff or, when
// semesterID is set, students enrolled in that semester.
func (r *StudentRepository) RecentlyActiveIDs(ctx context.Context, since time.Time, semesterID string) ([]string, error) {
	const query = `SELECT DISTINCT sp.user_id FROM students sp
JOIN users u ON u.id = sp.user_id
LEFT JOIN activity_events ev ON ev.student_id = sp.user_id AND ev.occurred_at >= $1
WHERE sp.active AND u.active AND (ev.id IS NOT NULL OR ($2 <> '' AND sp.semester_id = $2))
ORDER BY sp.user_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, since, semesterID); err != nil {
		return nil, fmt.Errorf("recently active student ids: %w", err)
	}
	return ids, nil
}

// Exists reports whether the id belongs to a known student.
func (r *StudentRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE user_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("student exists: %w", err)
	}
	return exists, nil
}
