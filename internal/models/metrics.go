package models

// TimeBucket partitions the day into four activity windows.
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"   // [06:00, 12:00)
	BucketAfternoon TimeBucket = "afternoon" // [12:00, 18:00)
	BucketEvening   TimeBucket = "evening"   // [18:00, 23:00)
	BucketNight     TimeBucket = "night"
)

// GradeTrend describes week-over-week grade direction.
type GradeTrend string

const (
	GradeImproving GradeTrend = "improving"
	GradeDeclining GradeTrend = "declining"
	GradeStable    GradeTrend = "stable"
)

// ActivityMetrics is the flat aggregation of one student's raw sessions and
// events for a single week. A week with no activity yields the zero value.
type ActivityMetrics struct {
	LoginCount          int        `json:"login_count"`
	TotalSessionMinutes float64    `json:"total_session_minutes"`
	AvgSessionMinutes   float64    `json:"avg_session_minutes"`
	MaxSessionMinutes   float64    `json:"max_session_minutes"`
	VideoSessions       int        `json:"video_sessions"`
	AssignmentSessions  int        `json:"assignment_sessions"`
	QuizSessions        int        `json:"quiz_sessions"`
	DiscussionSessions  int        `json:"discussion_sessions"`
	VideoCompletionRate float64    `json:"video_completion_rate"`
	MorningPct          float64    `json:"morning_pct"`
	AfternoonPct        float64    `json:"afternoon_pct"`
	EveningPct          float64    `json:"evening_pct"`
	NightPct            float64    `json:"night_pct"`
	PreferredTimeBucket TimeBucket `json:"preferred_time_bucket"`
	ActiveDays          int        `json:"active_days"`
	ConsistencyScore    float64    `json:"consistency_score"`
	VideoEngagement     float64    `json:"video_engagement"`
	AssignmentEngage    float64    `json:"assignment_engagement"`
	DiscussionEngage    float64    `json:"discussion_engagement"`
	OverallEngagement   float64    `json:"overall_engagement"`
}

// AssignmentMetrics aggregates submission facts for one student/week.
type AssignmentMetrics struct {
	Submitted  int     `json:"submitted"`
	OnTime     int     `json:"on_time"`
	OnTimeRate float64 `json:"on_time_rate"`
}

// GradeMetrics aggregates grading facts for one student/week.
type GradeMetrics struct {
	AvgGrade     *float64   `json:"avg_grade,omitempty"`
	PrevAvgGrade *float64   `json:"prev_avg_grade,omitempty"`
	Trend        GradeTrend `json:"trend"`
}

// AttendanceMetrics counts days marked present or late in the window.
type AttendanceMetrics struct {
	AttendedDays int `json:"attended_days"`
}

// StudentWeekMetrics merges all per-week facts fed into the risk classifier.
type StudentWeekMetrics struct {
	Activity   ActivityMetrics   `json:"activity"`
	Assignment AssignmentMetrics `json:"assignment"`
	Grade      GradeMetrics      `json:"grade"`
	Attendance AttendanceMetrics `json:"attendance"`
}
