package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

// EventRepository reads the append-only learning event store. All queries are
// read-only; the analytics pipeline never writes back.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// SessionsInWindow returns a student's learning sessions with
// started_at in [from, to).
func (r *EventRepository) SessionsInWindow(ctx context.Context, studentID string, from, to time.Time) ([]models.LearningSession, error) {
	const query = `SELECT id, student_id, content_type, started_at, duration_minutes, completed
FROM learning_sessions
WHERE student_id = $1 AND started_at >= $2 AND started_at < $3
ORDER BY started_at ASC`
	var sessions []models.LearningSession
	if err := r.db.SelectContext(ctx, &sessions, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list learning sessions: %w", err)
	}
	return sessions, nil
}

// EventsInWindow returns a student's raw activity events with
// occurred_at in [from, to).
func (r *EventRepository) EventsInWindow(ctx context.Context, studentID string, from, to time.Time) ([]models.ActivityEvent, error) {
	const query = `SELECT id, student_id, action, occurred_at
FROM activity_events
WHERE student_id = $1 AND occurred_at >= $2 AND occurred_at < $3
ORDER BY occurred_at ASC`
	var events []models.ActivityEvent
	if err := r.db.SelectContext(ctx, &events, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	return events, nil
}
