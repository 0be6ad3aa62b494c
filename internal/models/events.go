package models

import "time"

// SessionContentType enumerates the kinds of learning content a session targets.
type SessionContentType string

const (
	ContentVideo      SessionContentType = "video"
	ContentAssignment SessionContentType = "assignment"
	ContentQuiz       SessionContentType = "quiz"
	ContentDiscussion SessionContentType = "discussion"
)

// LearningSession is a single study session recorded by the event store.
type LearningSession struct {
	ID              string             `db:"id" json:"id"`
	StudentID       string             `db:"student_id" json:"student_id"`
	ContentType     SessionContentType `db:"content_type" json:"content_type"`
	StartedAt       time.Time          `db:"started_at" json:"started_at"`
	DurationMinutes float64            `db:"duration_minutes" json:"duration_minutes"`
	Completed       bool               `db:"completed" json:"completed"`
}

// ActivityEvent is a raw platform activity record (login, page view, click).
type ActivityEvent struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Action     string    `db:"action" json:"action"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}
