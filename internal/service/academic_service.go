package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

// AssignmentStore exposes submission metrics for a student/window.
type AssignmentStore interface {
	Metrics(ctx context.Context, studentID string, from, to time.Time) (models.AssignmentMetrics, error)
}

// GradeStore exposes the average grade for a student/window.
type GradeStore interface {
	AverageInWindow(ctx context.Context, studentID string, from, to time.Time) (*float64, error)
}

// AttendanceStore exposes attended-day counts for a student/window.
type AttendanceStore interface {
	AttendedDays(ctx context.Context, studentID string, from, to time.Time) (int, error)
}

// AcademicService fetches assignment, grade, and attendance facts scoped to
// one student and one week. Empty result sets always map to neutral zero
// values instead of errors.
type AcademicService struct {
	assignments AssignmentStore
	grades      GradeStore
	attendance  AttendanceStore
	logger      *zap.Logger
}

// NewAcademicService constructs the fetcher.
func NewAcademicService(assignments AssignmentStore, grades GradeStore, attendance AttendanceStore, logger *zap.Logger) *AcademicService {
	return &AcademicService{assignments: assignments, grades: grades, attendance: attendance, logger: logger}
}

// AssignmentMetrics returns submission/on-time counts for the week.
func (s *AcademicService) AssignmentMetrics(ctx context.Context, studentID string, weekStart time.Time) (models.AssignmentMetrics, error) {
	return s.assignments.Metrics(ctx, studentID, weekStart, weekStart.AddDate(0, 0, 7))
}

// GradeMetrics returns this week's average grade alongside the prior week's,
// with a trend derived from the two. The trend is stable whenever either
// average is missing or the difference stays within five points.
func (s *AcademicService) GradeMetrics(ctx context.Context, studentID string, weekStart time.Time) (models.GradeMetrics, error) {
	current, err := s.grades.AverageInWindow(ctx, studentID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return models.GradeMetrics{}, err
	}
	previous, err := s.grades.AverageInWindow(ctx, studentID, weekStart.AddDate(0, 0, -7), weekStart)
	if err != nil {
		return models.GradeMetrics{}, err
	}

	m := models.GradeMetrics{AvgGrade: current, PrevAvgGrade: previous, Trend: models.GradeStable}
	if current != nil && previous != nil {
		switch diff := *current - *previous; {
		case diff > 5:
			m.Trend = models.GradeImproving
		case diff < -5:
			m.Trend = models.GradeDeclining
		}
	}
	return m, nil
}

// AttendanceMetrics returns the number of attended days in the week.
func (s *AcademicService) AttendanceMetrics(ctx context.Context, studentID string, weekStart time.Time) (models.AttendanceMetrics, error) {
	days, err := s.attendance.AttendedDays(ctx, studentID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return models.AttendanceMetrics{}, err
	}
	return models.AttendanceMetrics{AttendedDays: days}, nil
}
