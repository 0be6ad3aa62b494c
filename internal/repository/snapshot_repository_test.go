package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

func newSnapshotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSnapshotRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_behavior_snapshots")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	snap := &models.WeeklyBehaviorSnapshot{
		StudentID:           "s1",
		WeekStart:           time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		LoginCount:          4,
		OverallEngagement:   15.71,
		PreferredTimeBucket: models.BucketMorning,
		GradeTrend:          models.GradeStable,
		RiskScore:           65,
		RiskLevel:           models.RiskAtRisk,
		RiskFactors:         pq.StringArray{models.FactorLowEngagement},
	}
	require.NoError(t, repo.Upsert(context.Background(), snap))
	require.NotEmpty(t, snap.ID)
	require.False(t, snap.CalculatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "week_start", "overall_engagement", "risk_score", "risk_level"}).
		AddRow("snap-2", "s1", week, 50.0, 30, "warning").
		AddRow("snap-1", "s1", week.AddDate(0, 0, -7), 40.0, 60, "at_risk")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("s1", 2).
		WillReturnRows(rows)

	snaps, err := repo.Latest(context.Background(), "s1", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, week, snaps[0].WeekStart)
	require.Equal(t, models.RiskWarning, snaps[0].RiskLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryListAtRisk(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	listRows := sqlmock.NewRows([]string{
		"student_id", "full_name", "email", "student_number", "program",
		"week_start", "risk_score", "risk_level", "risk_factors",
		"overall_engagement", "consistency_score", "on_time_rate", "active_days", "calculated_at",
	}).AddRow("s1", "Aisyah Putri", "aisyah@example.edu", "2024-001", "Informatics",
		week, 80, "critical", "{low_engagement,poor_attendance}",
		20.0, 30.0, 50.0, 2, time.Now())
	mock.ExpectQuery("SELECT s.student_id").
		WillReturnRows(listRows)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.ListAtRisk(context.Background(), models.AtRiskFilter{
		Levels:   []models.RiskLevel{models.RiskCritical},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.Equal(t, models.RiskCritical, records[0].RiskLevel)
	require.Equal(t, pq.StringArray{"low_engagement", "poor_attendance"}, records[0].RiskFactors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLevelCounts(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	rows := sqlmock.NewRows([]string{"risk_level", "count"}).
		AddRow("critical", 3).
		AddRow("warning", 7)
	mock.ExpectQuery("SELECT s.risk_level").
		WillReturnRows(rows)

	counts, err := repo.LevelCounts(context.Background(), models.AtRiskFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, counts[models.RiskCritical])
	require.Equal(t, 7, counts[models.RiskWarning])
	require.NoError(t, mock.ExpectationsWereMet())
}
