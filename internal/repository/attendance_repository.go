package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// AttendanceRepository is a narrow read adapter over the attendance subsystem.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// AttendedDays counts distinct days in [from, to) where the student was
// marked present or late.
func (r *AttendanceRepository) AttendedDays(ctx context.Context, studentID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(DISTINCT date)
FROM attendance_records
WHERE student_id = $1 AND date >= $2 AND date < $3 AND status IN ('present', 'late')`
	var days int
	if err := r.db.QueryRowxContext(ctx, query, studentID, from, to).Scan(&days); err != nil {
		return 0, fmt.Errorf("attended days: %w", err)
	}
	return days, nil
}
