package service

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

// Weekly engagement targets per content type.
const (
	videoWeeklyTarget      = 7
	assignmentWeeklyTarget = 5
	discussionWeeklyTarget = 5
)

// EventStore reads raw behavioural data for the aggregation window.
type EventStore interface {
	SessionsInWindow(ctx context.Context, studentID string, from, to time.Time) ([]models.LearningSession, error)
	EventsInWindow(ctx context.Context, studentID string, from, to time.Time) ([]models.ActivityEvent, error)
}

// AggregatorService condenses one student's raw sessions and activity events
// for a calendar week into a flat metrics record. A week without any activity
// produces a fully zeroed record rather than an error.
type AggregatorService struct {
	events EventStore
	logger *zap.Logger
}

// NewAggregatorService constructs the aggregator.
func NewAggregatorService(events EventStore, logger *zap.Logger) *AggregatorService {
	return &AggregatorService{events: events, logger: logger}
}

// WeekStart normalises a timestamp to 00:00 of the Monday of its week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// Aggregate computes the activity metrics for the week beginning at weekStart.
func (s *AggregatorService) Aggregate(ctx context.Context, studentID string, weekStart time.Time) (models.ActivityMetrics, error) {
	from := weekStart
	to := weekStart.AddDate(0, 0, 7)

	sessions, err := s.events.SessionsInWindow(ctx, studentID, from, to)
	if err != nil {
		return models.ActivityMetrics{}, err
	}
	events, err := s.events.EventsInWindow(ctx, studentID, from, to)
	if err != nil {
		return models.ActivityMetrics{}, err
	}

	var m models.ActivityMetrics

	// Login events and session rows are summed independently, so a login
	// that opened a session counts twice. Existing consumers depend on it.
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Action), "login") {
			m.LoginCount++
		}
	}
	m.LoginCount += len(sessions)

	var completedVideos int
	buckets := map[models.TimeBucket]int{}
	activeDays := map[string]struct{}{}

	for _, sess := range sessions {
		m.TotalSessionMinutes += sess.DurationMinutes
		if sess.DurationMinutes > m.MaxSessionMinutes {
			m.MaxSessionMinutes = sess.DurationMinutes
		}

		switch sess.ContentType {
		case models.ContentVideo:
			m.VideoSessions++
			if sess.Completed {
				completedVideos++
			}
		case models.ContentAssignment:
			m.AssignmentSessions++
		case models.ContentQuiz:
			m.QuizSessions++
		case models.ContentDiscussion:
			m.DiscussionSessions++
		}

		buckets[bucketOf(sess.StartedAt)]++
		activeDays[sess.StartedAt.UTC().Format("2006-01-02")] = struct{}{}
	}
	for _, ev := range events {
		activeDays[ev.OccurredAt.UTC().Format("2006-01-02")] = struct{}{}
	}

	if len(sessions) > 0 {
		m.AvgSessionMinutes = m.TotalSessionMinutes / float64(len(sessions))
	}
	if m.VideoSessions > 0 {
		m.VideoCompletionRate = float64(completedVideos) / float64(m.VideoSessions) * 100
	}

	total := 0
	for _, n := range buckets {
		total += n
	}
	if total > 0 {
		m.MorningPct = float64(buckets[models.BucketMorning]) / float64(total) * 100
		m.AfternoonPct = float64(buckets[models.BucketAfternoon]) / float64(total) * 100
		m.EveningPct = float64(buckets[models.BucketEvening]) / float64(total) * 100
		m.NightPct = float64(buckets[models.BucketNight]) / float64(total) * 100
	}
	m.PreferredTimeBucket = preferredBucket(buckets)

	m.ActiveDays = len(activeDays)
	m.ConsistencyScore = scoreAgainstTarget(m.ActiveDays, 7)
	m.VideoEngagement = scoreAgainstTarget(m.VideoSessions, videoWeeklyTarget)
	m.AssignmentEngage = scoreAgainstTarget(m.AssignmentSessions, assignmentWeeklyTarget)
	m.DiscussionEngage = scoreAgainstTarget(m.DiscussionSessions, discussionWeeklyTarget)
	m.OverallEngagement = round2((m.VideoEngagement + m.AssignmentEngage + m.DiscussionEngage + m.ConsistencyScore) / 4)

	return m, nil
}

func bucketOf(t time.Time) models.TimeBucket {
	switch hour := t.Hour(); {
	case hour >= 6 && hour < 12:
		return models.BucketMorning
	case hour >= 12 && hour < 18:
		return models.BucketAfternoon
	case hour >= 18 && hour < 23:
		return models.BucketEvening
	default:
		return models.BucketNight
	}
}

// preferredBucket picks the bucket with the highest count. Ties resolve in
// the order morning, afternoon, evening, night.
func preferredBucket(counts map[models.TimeBucket]int) models.TimeBucket {
	order := []models.TimeBucket{models.BucketMorning, models.BucketAfternoon, models.BucketEvening, models.BucketNight}
	best := models.BucketMorning
	bestCount := -1
	for _, b := range order {
		if counts[b] > bestCount {
			best = b
			bestCount = counts[b]
		}
	}
	return best
}

func scoreAgainstTarget(count, target int) float64 {
	return math.Min(100, round2(float64(count)/float64(target)*100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
