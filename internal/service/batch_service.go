package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/config"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

// SnapshotStore persists computed weekly snapshots.
type SnapshotStore interface {
	Upsert(ctx context.Context, snap *models.WeeklyBehaviorSnapshot) error
}

// CohortStore resolves cohort specifications into student id lists.
type CohortStore interface {
	ActiveIDs(ctx context.Context) ([]string, error)
	RecentlyActiveIDs(ctx context.Context, since time.Time, semesterID string) ([]string, error)
}

// CacheInvalidator drops cached listing payloads after snapshots change.
type CacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// BatchService runs the aggregate-classify-store pipeline over a cohort of
// students. Failures are isolated per student and a wall-clock budget bounds
// the whole run; exhausting the budget yields a partial result, not an error.
type BatchService struct {
	aggregator *AggregatorService
	academic   *AcademicService
	snapshots  SnapshotStore
	cohorts    CohortStore
	cache      CacheInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        config.BatchConfig

	now func() time.Time
}

// NewBatchService constructs the orchestrator.
func NewBatchService(
	aggregator *AggregatorService,
	academic *AcademicService,
	snapshots SnapshotStore,
	cohorts CohortStore,
	cache CacheInvalidator,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.BatchConfig,
) *BatchService {
	return &BatchService{
		aggregator: aggregator,
		academic:   academic,
		snapshots:  snapshots,
		cohorts:    cohorts,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run processes the cohort for the week containing weekAnchor within the
// given time budget. An invalid cohort fails immediately with errors=1 and
// nothing processed.
func (s *BatchService) Run(ctx context.Context, spec models.CohortSpec, weekAnchor time.Time, budget time.Duration) (models.BatchRunResult, error) {
	start := s.now()

	if !spec.Valid() {
		return models.BatchRunResult{Errors: 1}, appErrors.ErrInvalidCohort
	}

	studentIDs, err := s.resolveCohort(ctx, spec)
	if err != nil {
		return models.BatchRunResult{Errors: 1}, err
	}

	weekStart := WeekStart(weekAnchor)
	result := models.BatchRunResult{}

	for _, id := range studentIDs {
		if budget > 0 && s.now().Sub(start) > budget {
			result.Partial = true
			s.logger.Warn("batch time budget exhausted",
				zap.Duration("budget", budget),
				zap.Int("processed", result.Processed),
				zap.Int("remaining", len(studentIDs)-result.Processed-result.Errors))
			break
		}

		if err := s.processStudent(ctx, id, weekStart); err != nil {
			result.Errors++
			s.logger.Error("snapshot computation failed",
				zap.String("student_id", id),
				zap.Time("week_start", weekStart),
				zap.Error(err))
			continue
		}
		result.Processed++
	}

	result.Elapsed = s.now().Sub(start)
	result.ElapsedMs = result.Elapsed.Milliseconds()

	if s.cache != nil && result.Processed > 0 {
		if err := s.cache.DeleteByPattern(ctx, "atrisk:*"); err != nil {
			s.logger.Warn("at-risk cache invalidation failed", zap.Error(err))
		}
		if err := s.cache.DeleteByPattern(ctx, "trends:*"); err != nil {
			s.logger.Warn("trend cache invalidation failed", zap.Error(err))
		}
	}

	s.metrics.ObserveBatchRun(result.Processed, result.Errors, result.Elapsed, result.Partial)
	s.logger.Info("batch run finished",
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
		zap.Bool("partial", result.Partial),
		zap.Duration("elapsed", result.Elapsed))

	return result, nil
}

// processStudent runs the full pipeline for one student. A panic inside any
// stage is converted into an error so the run can keep going.
func (s *BatchService) processStudent(ctx context.Context, studentID string, weekStart time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing student %s: %v", studentID, r)
		}
	}()

	activity, err := s.aggregator.Aggregate(ctx, studentID, weekStart)
	if err != nil {
		return fmt.Errorf("aggregate activity: %w", err)
	}
	assignment, err := s.academic.AssignmentMetrics(ctx, studentID, weekStart)
	if err != nil {
		return fmt.Errorf("assignment metrics: %w", err)
	}
	grade, err := s.academic.GradeMetrics(ctx, studentID, weekStart)
	if err != nil {
		return fmt.Errorf("grade metrics: %w", err)
	}
	attendance, err := s.academic.AttendanceMetrics(ctx, studentID, weekStart)
	if err != nil {
		return fmt.Errorf("attendance metrics: %w", err)
	}

	merged := models.StudentWeekMetrics{
		Activity:   activity,
		Assignment: assignment,
		Grade:      grade,
		Attendance: attendance,
	}
	score, level, factors := ClassifyRisk(merged)

	snap := &models.WeeklyBehaviorSnapshot{
		StudentID:           studentID,
		WeekStart:           weekStart,
		LoginCount:          activity.LoginCount,
		TotalSessionMinutes: activity.TotalSessionMinutes,
		AvgSessionMinutes:   activity.AvgSessionMinutes,
		MaxSessionMinutes:   activity.MaxSessionMinutes,
		VideoSessions:       activity.VideoSessions,
		AssignmentSessions:  activity.AssignmentSessions,
		QuizSessions:        activity.QuizSessions,
		DiscussionSessions:  activity.DiscussionSessions,
		VideoCompletionRate: activity.VideoCompletionRate,
		MorningPct:          activity.MorningPct,
		AfternoonPct:        activity.AfternoonPct,
		EveningPct:          activity.EveningPct,
		NightPct:            activity.NightPct,
		PreferredTimeBucket: activity.PreferredTimeBucket,
		ActiveDays:          activity.ActiveDays,
		ConsistencyScore:    activity.ConsistencyScore,
		VideoEngagement:     activity.VideoEngagement,
		AssignmentEngage:    activity.AssignmentEngage,
		DiscussionEngage:    activity.DiscussionEngage,
		OverallEngagement:   activity.OverallEngagement,
		AssignmentsDone:     assignment.Submitted,
		AssignmentsOnTime:   assignment.OnTime,
		OnTimeRate:          assignment.OnTimeRate,
		AvgGrade:            grade.AvgGrade,
		GradeTrend:          grade.Trend,
		AttendedDays:        attendance.AttendedDays,
		RiskScore:           score,
		RiskLevel:           level,
		RiskFactors:         factors,
		CalculatedAt:        s.now().UTC(),
	}

	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *BatchService) resolveCohort(ctx context.Context, spec models.CohortSpec) ([]string, error) {
	switch spec.Scope {
	case models.CohortAll:
		return s.cohorts.ActiveIDs(ctx)
	case models.CohortRecent:
		return s.cohorts.RecentlyActiveIDs(ctx, s.now().AddDate(0, 0, -7), spec.SemesterID)
	case models.CohortSingle:
		return []string{spec.StudentID}, nil
	default:
		return nil, appErrors.ErrInvalidCohort
	}
}

// StartWeekly launches the unattended cadence that recomputes the full
// cohort on the configured interval. It returns immediately; the loop stops
// when ctx is cancelled.
func (s *BatchService) StartWeekly(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("scheduled batch runs disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				spec := models.CohortSpec{Scope: models.CohortAll}
				if _, err := s.Run(ctx, spec, s.now(), s.cfg.TimeBudget); err != nil {
					s.logger.Error("scheduled batch run failed", zap.Error(err))
				}
			}
		}
	}()
}
