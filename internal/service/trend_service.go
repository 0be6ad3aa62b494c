package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/config"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

// SnapshotHistoryStore reads a student's recent snapshots in reverse
// chronological order.
type SnapshotHistoryStore interface {
	Latest(ctx context.Context, studentID string, limit int) ([]models.WeeklyBehaviorSnapshot, error)
}

// TrendService compares a student's two most recent weekly snapshots.
type TrendService struct {
	snapshots SnapshotHistoryStore
	cache     ListingCache
	logger    *zap.Logger
	cfg       config.AtRiskConfig
}

// NewTrendService constructs the trend reader.
func NewTrendService(snapshots SnapshotHistoryStore, cache ListingCache, logger *zap.Logger, cfg config.AtRiskConfig) *TrendService {
	return &TrendService{snapshots: snapshots, cache: cache, logger: logger, cfg: cfg}
}

// Trends returns week-over-week movement for engagement, logins,
// consistency, and risk. Fails with a not-found error when the student has
// fewer than two snapshots.
func (s *TrendService) Trends(ctx context.Context, studentID string) (*models.StudentTrends, error) {
	cacheKey := "trends:" + studentID
	if s.cache != nil {
		var cached models.StudentTrends
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("trend cache read failed", zap.Error(err))
		}
	}

	snaps, err := s.snapshots.Latest(ctx, studentID, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "not enough snapshot history to compute trends")
	}

	current, previous := snaps[0], snaps[1]
	trends := &models.StudentTrends{
		StudentID:    studentID,
		CurrentWeek:  current.WeekStart,
		PreviousWeek: previous.WeekStart,
		Engagement:   metricTrend(previous.OverallEngagement, current.OverallEngagement, false),
		Logins:       metricTrend(float64(previous.LoginCount), float64(current.LoginCount), false),
		Consistency:  metricTrend(previous.ConsistencyScore, current.ConsistencyScore, false),
		Risk:         metricTrend(float64(previous.RiskScore), float64(current.RiskScore), true),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, trends, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("trend cache write failed", zap.Error(err))
		}
	}

	return trends, nil
}

// metricTrend classifies the percent change between two values. The change
// must cross a ten percent band to leave stable. For inverted metrics a drop
// reads as improvement.
func metricTrend(previous, current float64, inverted bool) models.MetricTrend {
	t := models.MetricTrend{Previous: previous, Current: current, Direction: models.TrendStable}
	if previous == 0 {
		return t
	}
	t.PctChange = math.Round((current-previous)/previous*100*100) / 100

	change := t.PctChange
	if inverted {
		change = -change
	}
	switch {
	case change > 10:
		t.Direction = models.TrendImproving
	case change < -10:
		t.Direction = models.TrendDeclining
	}
	return t
}
