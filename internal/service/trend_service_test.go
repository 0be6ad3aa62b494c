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

type fakeHistoryStore struct {
	snaps []models.WeeklyBehaviorSnapshot
	err   error
}

func (f *fakeHistoryStore) Latest(context.Context, string, int) ([]models.WeeklyBehaviorSnapshot, error) {
	return f.snaps, f.err
}

func newTestTrendService(store *fakeHistoryStore) *TrendService {
	return NewTrendService(store, nil, zap.NewNop(), config.AtRiskConfig{})
}

func TestTrendsRequireTwoSnapshots(t *testing.T) {
	svc := newTestTrendService(&fakeHistoryStore{snaps: []models.WeeklyBehaviorSnapshot{{}}})

	_, err := svc.Trends(context.Background(), "s1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTrendsDirections(t *testing.T) {
	currentWeek := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	previousWeek := currentWeek.AddDate(0, 0, -7)
	store := &fakeHistoryStore{snaps: []models.WeeklyBehaviorSnapshot{
		{ // most recent first
			WeekStart:         currentWeek,
			OverallEngagement: 50,
			LoginCount:        5,
			ConsistencyScore:  44,
			RiskScore:         30,
		},
		{
			WeekStart:         previousWeek,
			OverallEngagement: 40,
			LoginCount:        5,
			ConsistencyScore:  40,
			RiskScore:         60,
		},
	}}
	svc := newTestTrendService(store)

	trends, err := svc.Trends(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, currentWeek, trends.CurrentWeek)
	assert.Equal(t, previousWeek, trends.PreviousWeek)

	// 40 -> 50 is +25%, improving.
	assert.Equal(t, models.TrendImproving, trends.Engagement.Direction)
	assert.InDelta(t, 25.0, trends.Engagement.PctChange, 0.001)

	// Unchanged logins stay stable.
	assert.Equal(t, models.TrendStable, trends.Logins.Direction)

	// +10% sits on the band edge and stays stable.
	assert.Equal(t, models.TrendStable, trends.Consistency.Direction)

	// Risk halved: a drop reads as improvement.
	assert.Equal(t, models.TrendImproving, trends.Risk.Direction)
	assert.InDelta(t, -50.0, trends.Risk.PctChange, 0.001)
}

func TestTrendsZeroPreviousIsStable(t *testing.T) {
	store := &fakeHistoryStore{snaps: []models.WeeklyBehaviorSnapshot{
		{OverallEngagement: 80, RiskScore: 40},
		{OverallEngagement: 0, RiskScore: 0},
	}}
	svc := newTestTrendService(store)

	trends, err := svc.Trends(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, models.TrendStable, trends.Engagement.Direction)
	assert.Zero(t, trends.Engagement.PctChange)
	assert.Equal(t, models.TrendStable, trends.Risk.Direction)
}

func TestTrendsRiskIncreaseDeclines(t *testing.T) {
	store := &fakeHistoryStore{snaps: []models.WeeklyBehaviorSnapshot{
		{RiskScore: 80},
		{RiskScore: 40},
	}}
	svc := newTestTrendService(store)

	trends, err := svc.Trends(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.TrendDeclining, trends.Risk.Direction)
}
