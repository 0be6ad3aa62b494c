package models

import "time"

// TrendDirection classifies week-over-week change.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// MetricTrend compares one metric between the two most recent snapshots.
type MetricTrend struct {
	Previous  float64        `json:"previous"`
	Current   float64        `json:"current"`
	PctChange float64        `json:"pct_change"`
	Direction TrendDirection `json:"direction"`
}

// StudentTrends bundles the per-metric comparisons for one student.
type StudentTrends struct {
	StudentID    string      `json:"student_id"`
	CurrentWeek  time.Time   `json:"current_week"`
	PreviousWeek time.Time   `json:"previous_week"`
	Engagement   MetricTrend `json:"engagement"`
	Logins       MetricTrend `json:"logins"`
	Consistency  MetricTrend `json:"consistency"`
	Risk         MetricTrend `json:"risk"`
}
