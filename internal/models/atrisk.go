package models

import (
	"time"

	"github.com/lib/pq"
)

// AtRiskFilter scopes the at-risk listing. Levels defaults to
// {warning, at_risk, critical} when empty and IncludeAll is false.
type AtRiskFilter struct {
	Levels     []RiskLevel
	IncludeAll bool
	Program    string
	SemesterID string
	Search     string
	Page       int
	PageSize   int
}

// AtRiskRecord is the raw snapshot+profile row scanned from the store.
type AtRiskRecord struct {
	StudentID         string         `db:"student_id"`
	FullName          string         `db:"full_name"`
	Email             string         `db:"email"`
	StudentNumber     string         `db:"student_number"`
	Program           string         `db:"program"`
	WeekStart         time.Time      `db:"week_start"`
	RiskScore         int            `db:"risk_score"`
	RiskLevel         RiskLevel      `db:"risk_level"`
	RiskFactors       pq.StringArray `db:"risk_factors"`
	OverallEngagement float64        `db:"overall_engagement"`
	ConsistencyScore  float64        `db:"consistency_score"`
	OnTimeRate        float64        `db:"on_time_rate"`
	ActiveDays        int            `db:"active_days"`
	CalculatedAt      time.Time      `db:"calculated_at"`
}

// AtRiskStudent is one listing row enriched with the ephemeral presentation
// scores. Composite and urgency are derived per request and never persisted.
type AtRiskStudent struct {
	StudentID         string    `json:"student_id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	StudentNumber     string    `json:"student_number"`
	Program           string    `json:"program"`
	WeekStart         time.Time `json:"week_start"`
	RiskScore         int       `json:"risk_score"`
	RiskLevel         RiskLevel `json:"risk_level"`
	RiskFactors       []string  `json:"risk_factors"`
	OverallEngagement float64   `json:"overall_engagement"`
	ConsistencyScore  float64   `json:"consistency_score"`
	OnTimeRate        float64   `json:"on_time_rate"`
	ActiveDays        int       `json:"active_days"`
	OpenInterventions int       `json:"open_interventions"`
	CompositeScore    float64   `json:"composite_score"`
	UrgencyScore      int       `json:"urgency_score"`
	NeedsAttention    bool      `json:"needs_attention"`
	CalculatedAt      time.Time `json:"calculated_at"`
}

// AtRiskSummary aggregates counts across the full filtered set.
type AtRiskSummary struct {
	Total          int               `json:"total"`
	ByLevel        map[RiskLevel]int `json:"by_level"`
	NeedsAttention int               `json:"needs_attention"`
}

// AtRiskPage bundles the listing payload for transport and caching.
type AtRiskPage struct {
	Students   []AtRiskStudent `json:"students"`
	Summary    AtRiskSummary   `json:"summary"`
	Pagination Pagination      `json:"pagination"`
}
