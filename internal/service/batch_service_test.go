package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/config"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

type selectiveEventStore struct {
	failFor map[string]bool
}

func (f *selectiveEventStore) SessionsInWindow(_ context.Context, studentID string, _, _ time.Time) ([]models.LearningSession, error) {
	if f.failFor[studentID] {
		return nil, errors.New("event store unavailable")
	}
	return nil, nil
}

func (f *selectiveEventStore) EventsInWindow(context.Context, string, time.Time, time.Time) ([]models.ActivityEvent, error) {
	return nil, nil
}

type neutralAssignmentStore struct{}

func (neutralAssignmentStore) Metrics(context.Context, string, time.Time, time.Time) (models.AssignmentMetrics, error) {
	return models.AssignmentMetrics{}, nil
}

type neutralGradeStore struct{}

func (neutralGradeStore) AverageInWindow(context.Context, string, time.Time, time.Time) (*float64, error) {
	return nil, nil
}

type neutralAttendanceStore struct{}

func (neutralAttendanceStore) AttendedDays(context.Context, string, time.Time, time.Time) (int, error) {
	return 0, nil
}

type recordingSnapshotStore struct {
	snaps []*models.WeeklyBehaviorSnapshot
	err   error
}

func (r *recordingSnapshotStore) Upsert(_ context.Context, snap *models.WeeklyBehaviorSnapshot) error {
	if r.err != nil {
		return r.err
	}
	r.snaps = append(r.snaps, snap)
	return nil
}

type staticCohortStore struct {
	ids []string
	err error
}

func (s *staticCohortStore) ActiveIDs(context.Context) ([]string, error) {
	return s.ids, s.err
}

func (s *staticCohortStore) RecentlyActiveIDs(context.Context, time.Time, string) ([]string, error) {
	return s.ids, s.err
}

func newTestBatchService(events EventStore, snaps SnapshotStore, cohorts CohortStore) *BatchService {
	logger := zap.NewNop()
	agg := NewAggregatorService(events, logger)
	academic := NewAcademicService(neutralAssignmentStore{}, neutralGradeStore{}, neutralAttendanceStore{}, logger)
	return NewBatchService(agg, academic, snaps, cohorts, nil, nil, logger, config.BatchConfig{})
}

func TestBatchRunContinuesPastFailures(t *testing.T) {
	store := &recordingSnapshotStore{}
	svc := newTestBatchService(
		&selectiveEventStore{failFor: map[string]bool{"s11": true}},
		store,
		&staticCohortStore{ids: []string{"s10", "s11", "s12"}},
	)

	result, err := svc.Run(context.Background(), models.CohortSpec{Scope: models.CohortAll}, time.Now(), time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.False(t, result.Partial)
	assert.Len(t, store.snaps, 2)
}

func TestBatchRunInvalidCohort(t *testing.T) {
	svc := newTestBatchService(&selectiveEventStore{}, &recordingSnapshotStore{}, &staticCohortStore{})

	result, err := svc.Run(context.Background(), models.CohortSpec{Scope: "bogus"}, time.Now(), time.Minute)
	require.ErrorIs(t, err, appErrors.ErrInvalidCohort)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Errors)
}

func TestBatchRunSingleCohortRequiresStudent(t *testing.T) {
	svc := newTestBatchService(&selectiveEventStore{}, &recordingSnapshotStore{}, &staticCohortStore{})

	_, err := svc.Run(context.Background(), models.CohortSpec{Scope: models.CohortSingle}, time.Now(), time.Minute)
	require.ErrorIs(t, err, appErrors.ErrInvalidCohort)
}

func TestBatchRunTimeBudget(t *testing.T) {
	store := &recordingSnapshotStore{}
	svc := newTestBatchService(
		&selectiveEventStore{},
		store,
		&staticCohortStore{ids: []string{"s1", "s2", "s3"}},
	)

	// Each now() call advances the clock far past the budget, so only the
	// first student is processed before the run stops.
	current := time.Now()
	svc.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}

	result, err := svc.Run(context.Background(), models.CohortSpec{Scope: models.CohortAll}, time.Now(), 30*time.Second)
	require.NoError(t, err)

	assert.True(t, result.Partial)
	assert.Less(t, result.Processed, 3)
}

func TestBatchRunSnapshotFailureCountsAsError(t *testing.T) {
	svc := newTestBatchService(
		&selectiveEventStore{},
		&recordingSnapshotStore{err: errors.New("db down")},
		&staticCohortStore{ids: []string{"s1"}},
	)

	result, err := svc.Run(context.Background(), models.CohortSpec{Scope: models.CohortAll}, time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Errors)
}

func TestBatchRunIdempotentMetrics(t *testing.T) {
	store := &recordingSnapshotStore{}
	svc := newTestBatchService(
		&selectiveEventStore{},
		store,
		&staticCohortStore{ids: []string{"s1"}},
	)

	anchor := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	_, err := svc.Run(context.Background(), models.CohortSpec{Scope: models.CohortAll}, anchor, time.Minute)
	require.NoError(t, err)
	_, err = svc.Run(context.Background(), models.CohortSpec{Scope: models.CohortAll}, anchor, time.Minute)
	require.NoError(t, err)

	require.Len(t, store.snaps, 2)
	first, second := store.snaps[0], store.snaps[1]
	assert.Equal(t, first.WeekStart, second.WeekStart)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.RiskLevel, second.RiskLevel)
	assert.Equal(t, first.OverallEngagement, second.OverallEngagement)
}
