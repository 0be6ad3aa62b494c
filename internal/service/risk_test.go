package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

func healthyMetrics() models.StudentWeekMetrics {
	return models.StudentWeekMetrics{
		Activity: models.ActivityMetrics{
			LoginCount:        10,
			ConsistencyScore:  85,
			OverallEngagement: 75,
		},
		Assignment: models.AssignmentMetrics{Submitted: 4, OnTime: 4, OnTimeRate: 100},
		Grade:      models.GradeMetrics{Trend: models.GradeStable},
		Attendance: models.AttendanceMetrics{AttendedDays: 5},
	}
}

func TestClassifyRiskHealthyStudent(t *testing.T) {
	score, level, factors := ClassifyRisk(healthyMetrics())
	assert.Equal(t, 0, score)
	assert.Equal(t, models.RiskSafe, level)
	assert.Empty(t, factors)
}

func TestClassifyRiskZeroInput(t *testing.T) {
	score, level, factors := ClassifyRisk(models.StudentWeekMetrics{})
	assert.Equal(t, 80, score)
	assert.Equal(t, models.RiskCritical, level)
	assert.ElementsMatch(t, []string{
		models.FactorLowEngagement,
		models.FactorMissingAssignments,
		models.FactorPoorAttendance,
		models.FactorLowActivity,
		models.FactorInconsistentBehavior,
	}, factors)
}

func TestClassifyRiskCapsAtHundred(t *testing.T) {
	m := models.StudentWeekMetrics{
		Assignment: models.AssignmentMetrics{Submitted: 1, OnTime: 0, OnTimeRate: 0},
		Grade:      models.GradeMetrics{Trend: models.GradeDeclining},
	}
	score, level, factors := ClassifyRisk(m)
	assert.Equal(t, 100, score)
	assert.Equal(t, models.RiskCritical, level)
	assert.Len(t, factors, 7)
}

func TestClassifyRiskThresholds(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*models.StudentWeekMetrics)
		score int
		level models.RiskLevel
	}{
		{
			name:  "single low factor stays safe",
			tweak: func(m *models.StudentWeekMetrics) { m.Grade.Trend = models.GradeDeclining },
			score: 10,
			level: models.RiskSafe,
		},
		{
			name: "thirty reaches warning",
			tweak: func(m *models.StudentWeekMetrics) {
				m.Activity.LoginCount = 2
				m.Assignment = models.AssignmentMetrics{Submitted: 1, OnTime: 1, OnTimeRate: 100}
			},
			score: 30,
			level: models.RiskWarning,
		},
		{
			name: "fifty reaches at_risk",
			tweak: func(m *models.StudentWeekMetrics) {
				m.Activity.OverallEngagement = 49
				m.Activity.LoginCount = 2
				m.Assignment = models.AssignmentMetrics{Submitted: 1, OnTime: 1, OnTimeRate: 100}
			},
			score: 50,
			level: models.RiskAtRisk,
		},
		{
			name: "seventy reaches critical",
			tweak: func(m *models.StudentWeekMetrics) {
				m.Activity.OverallEngagement = 49
				m.Activity.LoginCount = 2
				m.Assignment = models.AssignmentMetrics{Submitted: 1, OnTime: 1, OnTimeRate: 100}
				m.Attendance.AttendedDays = 2
			},
			score: 70,
			level: models.RiskCritical,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := healthyMetrics()
			tc.tweak(&m)
			score, level, _ := ClassifyRisk(m)
			assert.Equal(t, tc.score, score)
			assert.Equal(t, tc.level, level)
		})
	}
}

func TestClassifyRiskDeterministic(t *testing.T) {
	m := models.StudentWeekMetrics{
		Activity:   models.ActivityMetrics{LoginCount: 4, OverallEngagement: 15.71, ConsistencyScore: 28.57},
		Assignment: models.AssignmentMetrics{Submitted: 1, OnTime: 1, OnTimeRate: 100},
		Grade:      models.GradeMetrics{Trend: models.GradeStable},
		Attendance: models.AttendanceMetrics{AttendedDays: 2},
	}
	s1, l1, f1 := ClassifyRisk(m)
	s2, l2, f2 := ClassifyRisk(m)
	assert.Equal(t, s1, s2)
	assert.Equal(t, l1, l2)
	assert.Equal(t, f1, f2)

	assert.Equal(t, 65, s1)
	assert.Equal(t, models.RiskAtRisk, l1)
	assert.ElementsMatch(t, []string{
		models.FactorLowEngagement,
		models.FactorMissingAssignments,
		models.FactorPoorAttendance,
		models.FactorInconsistentBehavior,
	}, f1)
}
