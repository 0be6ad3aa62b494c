package models

import (
	"time"

	"github.com/lib/pq"
)

// RiskLevel categorises a capped risk score.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskWarning  RiskLevel = "warning"
	RiskAtRisk   RiskLevel = "at_risk"
	RiskCritical RiskLevel = "critical"
)

// Valid reports whether the level is one of the enumerated values.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskSafe, RiskWarning, RiskAtRisk, RiskCritical:
		return true
	default:
		return false
	}
}

// Named risk factors contributing fixed weights to the risk score.
const (
	FactorLowEngagement        = "low_engagement"
	FactorLateSubmissions      = "late_submissions"
	FactorMissingAssignments   = "missing_assignments"
	FactorPoorAttendance       = "poor_attendance"
	FactorLowActivity          = "low_activity"
	FactorInconsistentBehavior = "inconsistent_behavior"
	FactorDecliningGrades      = "declining_grades"
)

// WeeklyBehaviorSnapshot holds one student's aggregated metrics and risk
// classification for one calendar week. At most one row exists per
// (student_id, week_start); recomputation overwrites the row in full.
type WeeklyBehaviorSnapshot struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	WeekStart time.Time `db:"week_start" json:"week_start"`

	LoginCount          int            `db:"login_count" json:"login_count"`
	TotalSessionMinutes float64        `db:"total_session_minutes" json:"total_session_minutes"`
	AvgSessionMinutes   float64        `db:"avg_session_minutes" json:"avg_session_minutes"`
	MaxSessionMinutes   float64        `db:"max_session_minutes" json:"max_session_minutes"`
	VideoSessions       int            `db:"video_sessions" json:"video_sessions"`
	AssignmentSessions  int            `db:"assignment_sessions" json:"assignment_sessions"`
	QuizSessions        int            `db:"quiz_sessions" json:"quiz_sessions"`
	DiscussionSessions  int            `db:"discussion_sessions" json:"discussion_sessions"`
	VideoCompletionRate float64        `db:"video_completion_rate" json:"video_completion_rate"`
	MorningPct          float64        `db:"morning_pct" json:"morning_pct"`
	AfternoonPct        float64        `db:"afternoon_pct" json:"afternoon_pct"`
	EveningPct          float64        `db:"evening_pct" json:"evening_pct"`
	NightPct            float64        `db:"night_pct" json:"night_pct"`
	PreferredTimeBucket TimeBucket     `db:"preferred_time_bucket" json:"preferred_time_bucket"`
	ActiveDays          int            `db:"active_days" json:"active_days"`
	ConsistencyScore    float64        `db:"consistency_score" json:"consistency_score"`
	VideoEngagement     float64        `db:"video_engagement" json:"video_engagement"`
	AssignmentEngage    float64        `db:"assignment_engagement" json:"assignment_engagement"`
	DiscussionEngage    float64        `db:"discussion_engagement" json:"discussion_engagement"`
	OverallEngagement   float64        `db:"overall_engagement" json:"overall_engagement"`
	AssignmentsDone     int            `db:"assignments_submitted" json:"assignments_submitted"`
	AssignmentsOnTime   int            `db:"assignments_on_time" json:"assignments_on_time"`
	OnTimeRate          float64        `db:"on_time_rate" json:"on_time_rate"`
	AvgGrade            *float64       `db:"avg_grade" json:"avg_grade,omitempty"`
	GradeTrend          GradeTrend     `db:"grade_trend" json:"grade_trend"`
	AttendedDays        int            `db:"attended_days" json:"attended_days"`
	RiskScore           int            `db:"risk_score" json:"risk_score"`
	RiskLevel           RiskLevel      `db:"risk_level" json:"risk_level"`
	RiskFactors         pq.StringArray `db:"risk_factors" json:"risk_factors"`
	CalculatedAt        time.Time      `db:"calculated_at" json:"calculated_at"`
}
