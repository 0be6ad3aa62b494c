package service

import "github.com/noah-isme/edu-insight-api/internal/models"

// riskRule binds a named factor to its predicate and weight.
type riskRule struct {
	factor    string
	weight    int
	triggered func(m models.StudentWeekMetrics) bool
}

var riskRules = []riskRule{
	{models.FactorLowEngagement, 20, func(m models.StudentWeekMetrics) bool {
		return m.Activity.OverallEngagement < 50
	}},
	{models.FactorLateSubmissions, 15, func(m models.StudentWeekMetrics) bool {
		// A week with no submissions is covered by missing_assignments;
		// a zero on-time rate only counts when something was handed in.
		return m.Assignment.Submitted > 0 && m.Assignment.OnTimeRate < 70
	}},
	{models.FactorMissingAssignments, 15, func(m models.StudentWeekMetrics) bool {
		return m.Assignment.Submitted < 2
	}},
	{models.FactorPoorAttendance, 20, func(m models.StudentWeekMetrics) bool {
		return m.Attendance.AttendedDays < 3
	}},
	{models.FactorLowActivity, 15, func(m models.StudentWeekMetrics) bool {
		return m.Activity.LoginCount < 3
	}},
	{models.FactorInconsistentBehavior, 10, func(m models.StudentWeekMetrics) bool {
		return m.Activity.ConsistencyScore < 40
	}},
	{models.FactorDecliningGrades, 10, func(m models.StudentWeekMetrics) bool {
		return m.Grade.Trend == models.GradeDeclining
	}},
}

// ClassifyRisk evaluates the weighted risk factors against the merged weekly
// metrics and returns the capped score, its level, and the triggered factor
// names. The function is deterministic and has no side effects.
func ClassifyRisk(m models.StudentWeekMetrics) (int, models.RiskLevel, []string) {
	score := 0
	factors := make([]string, 0, len(riskRules))
	for _, rule := range riskRules {
		if rule.triggered(m) {
			score += rule.weight
			factors = append(factors, rule.factor)
		}
	}
	if score > 100 {
		score = 100
	}

	var level models.RiskLevel
	switch {
	case score >= 70:
		level = models.RiskCritical
	case score >= 50:
		level = models.RiskAtRisk
	case score >= 30:
		level = models.RiskWarning
	default:
		level = models.RiskSafe
	}

	return score, level, factors
}
