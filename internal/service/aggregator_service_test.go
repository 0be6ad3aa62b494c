package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

type fakeEventStore struct {
	sessions []models.LearningSession
	events   []models.ActivityEvent
	err      error
}

func (f *fakeEventStore) SessionsInWindow(context.Context, string, time.Time, time.Time) ([]models.LearningSession, error) {
	return f.sessions, f.err
}

func (f *fakeEventStore) EventsInWindow(context.Context, string, time.Time, time.Time) ([]models.ActivityEvent, error) {
	return f.events, f.err
}

func TestWeekStart(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	wed := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), WeekStart(wed))

	// A Sunday belongs to the week that started the previous Monday.
	sun := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), WeekStart(sun))

	mon := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, WeekStart(mon))
}

func TestAggregateEmptyWeek(t *testing.T) {
	svc := NewAggregatorService(&fakeEventStore{}, zap.NewNop())

	m, err := svc.Aggregate(context.Background(), "student-1", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Zero(t, m.LoginCount)
	assert.Zero(t, m.TotalSessionMinutes)
	assert.Zero(t, m.ActiveDays)
	assert.Zero(t, m.ConsistencyScore)
	assert.Zero(t, m.OverallEngagement)
	assert.Equal(t, models.BucketMorning, m.PreferredTimeBucket)
}

func TestAggregateTypicalWeek(t *testing.T) {
	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	store := &fakeEventStore{
		sessions: []models.LearningSession{
			{ContentType: models.ContentVideo, StartedAt: week.Add(9 * time.Hour), DurationMinutes: 30, Completed: true},
			{ContentType: models.ContentAssignment, StartedAt: week.AddDate(0, 0, 2).Add(14 * time.Hour), DurationMinutes: 45},
		},
		events: []models.ActivityEvent{
			{Action: "user_login", OccurredAt: week.Add(9 * time.Hour)},
			{Action: "user_login", OccurredAt: week.AddDate(0, 0, 2).Add(14 * time.Hour)},
		},
	}
	svc := NewAggregatorService(store, zap.NewNop())

	m, err := svc.Aggregate(context.Background(), "student-1", week)
	require.NoError(t, err)

	// Login events and session rows both count.
	assert.Equal(t, 4, m.LoginCount)

	assert.Equal(t, 75.0, m.TotalSessionMinutes)
	assert.Equal(t, 37.5, m.AvgSessionMinutes)
	assert.Equal(t, 45.0, m.MaxSessionMinutes)

	assert.Equal(t, 1, m.VideoSessions)
	assert.Equal(t, 1, m.AssignmentSessions)
	assert.Equal(t, 100.0, m.VideoCompletionRate)

	assert.Equal(t, 50.0, m.MorningPct)
	assert.Equal(t, 50.0, m.AfternoonPct)
	assert.Equal(t, models.BucketMorning, m.PreferredTimeBucket)

	assert.Equal(t, 2, m.ActiveDays)
	assert.InDelta(t, 28.57, m.ConsistencyScore, 0.001)
	assert.InDelta(t, 14.29, m.VideoEngagement, 0.001)
	assert.InDelta(t, 20.0, m.AssignmentEngage, 0.001)
	assert.Zero(t, m.DiscussionEngage)
	assert.InDelta(t, 15.71, m.OverallEngagement, 0.01)
}

func TestAggregateConsistencyCaps(t *testing.T) {
	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	sessions := make([]models.LearningSession, 0, 8)
	for day := 0; day < 7; day++ {
		sessions = append(sessions, models.LearningSession{
			ContentType: models.ContentVideo,
			StartedAt:   week.AddDate(0, 0, day).Add(10 * time.Hour),
			Completed:   true,
		})
	}
	svc := NewAggregatorService(&fakeEventStore{sessions: sessions}, zap.NewNop())

	m, err := svc.Aggregate(context.Background(), "student-1", week)
	require.NoError(t, err)
	assert.Equal(t, 7, m.ActiveDays)
	assert.Equal(t, 100.0, m.ConsistencyScore)
	assert.Equal(t, 100.0, m.VideoEngagement)
}

func TestPreferredBucketTieBreak(t *testing.T) {
	counts := map[models.TimeBucket]int{
		models.BucketEvening: 2,
		models.BucketNight:   2,
	}
	assert.Equal(t, models.BucketEvening, preferredBucket(counts))

	counts = map[models.TimeBucket]int{
		models.BucketMorning:   1,
		models.BucketAfternoon: 1,
		models.BucketEvening:   1,
		models.BucketNight:     1,
	}
	assert.Equal(t, models.BucketMorning, preferredBucket(counts))
}

func TestBucketOfBoundaries(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, models.BucketNight, bucketOf(day.Add(5*time.Hour)))
	assert.Equal(t, models.BucketMorning, bucketOf(day.Add(6*time.Hour)))
	assert.Equal(t, models.BucketAfternoon, bucketOf(day.Add(12*time.Hour)))
	assert.Equal(t, models.BucketEvening, bucketOf(day.Add(18*time.Hour)))
	assert.Equal(t, models.BucketNight, bucketOf(day.Add(23*time.Hour)))
}
