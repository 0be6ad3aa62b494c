package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-insight-api/internal/models"
)

// SnapshotRepository persists weekly behavior snapshots. The unique
// (student_id, week_start) constraint is the only coordination primitive:
// concurrent recomputations resolve by last write wins.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert writes the snapshot as a single atomic statement, overwriting every
// field of an existing (student_id, week_start) row. Partial merges are
// intentionally not supported.
func (r *SnapshotRepository) Upsert(ctx context.Context, snap *models.WeeklyBehaviorSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CalculatedAt.IsZero() {
		snap.CalculatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO weekly_behavior_snapshots (
	id, student_id, week_start,
	login_count, total_session_minutes, avg_session_minutes, max_session_minutes,
	video_sessions, assignment_sessions, quiz_sessions, discussion_sessions,
	video_completion_rate, morning_pct, afternoon_pct, evening_pct, night_pct,
	preferred_time_bucket, active_days, consistency_score,
	video_engagement, assignment_engagement, discussion_engagement, overall_engagement,
	assignments_submitted, assignments_on_time, on_time_rate,
	avg_grade, grade_trend, attended_days,
	risk_score, risk_level, risk_factors, calculated_at
) VALUES (
	:id, :student_id, :week_start,
	:login_count, :total_session_minutes, :avg_session_minutes, :max_session_minutes,
	:video_sessions, :assignment_sessions, :quiz_sessions, :discussion_sessions,
	:video_completion_rate, :morning_pct, :afternoon_pct, :evening_pct, :night_pct,
	:preferred_time_bucket, :active_days, :consistency_score,
	:video_engagement, :assignment_engagement, :discussion_engagement, :overall_engagement,
	:assignments_submitted, :assignments_on_time, :on_time_rate,
	:avg_grade, :grade_trend, :attended_days,
	:risk_score, :risk_level, :risk_factors, :calculated_at
) ON CONFLICT (student_id, week_start) DO UPDATE SET
	login_count = EXCLUDED.login_count,
	total_session_minutes = EXCLUDED.total_session_minutes,
	avg_session_minutes = EXCLUDED.avg_session_minutes,
	max_session_minutes = EXCLUDED.max_session_minutes,
	video_sessions = EXCLUDED.video_sessions,
	assignment_sessions = EXCLUDED.assignment_sessions,
	quiz_sessions = EXCLUDED.quiz_sessions,
	discussion_sessions = EXCLUDED.discussion_sessions,
	video_completion_rate = EXCLUDED.video_completion_rate,
	morning_pct = EXCLUDED.morning_pct,
	afternoon_pct = EXCLUDED.afternoon_pct,
	evening_pct = EXCLUDED.evening_pct,
	night_pct = EXCLUDED.night_pct,
	preferred_time_bucket = EXCLUDED.preferred_time_bucket,
	active_days = EXCLUDED.active_days,
	consistency_score = EXCLUDED.consistency_score,
	video_engagement = EXCLUDED.video_engagement,
	assignment_engagement = EXCLUDED.assignment_engagement,
	discussion_engagement = EXCLUDED.discussion_engagement,
	overall_engagement = EXCLUDED.overall_engagement,
	assignments_submitted = EXCLUDED.assignments_submitted,
	assignments_on_time = EXCLUDED.assignments_on_time,
	on_time_rate = EXCLUDED.on_time_rate,
	avg_grade = EXCLUDED.avg_grade,
	grade_trend = EXCLUDED.grade_trend,
	attended_days = EXCLUDED.attended_days,
	risk_score = EXCLUDED.risk_score,
	risk_level = EXCLUDED.risk_level,
	risk_factors = EXCLUDED.risk_factors,
	calculated_at = EXCLUDED.calculated_at`
	if _, err := r.db.NamedExecContext(ctx, query, snap); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Latest returns up to limit snapshots for a student, newest week first.
func (r *SnapshotRepository) Latest(ctx context.Context, studentID string, limit int) ([]models.WeeklyBehaviorSnapshot, error) {
	if limit <= 0 {
		limit = 2
	}
	const query = `SELECT * FROM weekly_behavior_snapshots
WHERE student_id = $1 ORDER BY week_start DESC LIMIT $2`
	var snaps []models.WeeklyBehaviorSnapshot
	if err := r.db.SelectContext(ctx, &snaps, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("latest snapshots: %w", err)
	}
	return snaps, nil
}

// ListAtRisk returns the most recent snapshot per student joined with the
// student profile, filtered, ranked by risk score descending then engagement
// ascending, and paginated. The total is computed against the same predicate
// without limit/offset.
func (r *SnapshotRepository) ListAtRisk(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskRecord, int, error) {
	base := `FROM weekly_behavior_snapshots s
JOIN users u ON u.id = s.student_id
JOIN students sp ON sp.user_id = s.student_id`
	where := []string{`s.week_start = (SELECT MAX(ls.week_start) FROM weekly_behavior_snapshots ls WHERE ls.student_id = s.student_id)`}
	args := []interface{}{}
	if len(filter.Levels) > 0 {
		levels := make([]string, len(filter.Levels))
		for i, l := range filter.Levels {
			levels[i] = string(l)
		}
		args = append(args, pq.Array(levels))
		where = append(where, fmt.Sprintf("s.risk_level = ANY($%d)", len(args)))
	}
	if filter.Program != "" {
		args = append(args, filter.Program)
		where = append(where, fmt.Sprintf("sp.program = $%d", len(args)))
	}
	if filter.SemesterID != "" {
		args = append(args, filter.SemesterID)
		where = append(where, fmt.Sprintf("sp.semester_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		pos := len(args)
		where = append(where, fmt.Sprintf("(u.full_name ILIKE $%d OR u.email ILIKE $%d OR sp.student_number ILIKE $%d)", pos, pos, pos))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.student_id, u.full_name, u.email, sp.student_number, sp.program,
	s.week_start, s.risk_score, s.risk_level, s.risk_factors,
	s.overall_engagement, s.consistency_score, s.on_time_rate, s.active_days, s.calculated_at
%s WHERE %s
ORDER BY s.risk_score DESC, s.overall_engagement ASC
LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var records []models.AtRiskRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list at-risk snapshots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count at-risk snapshots: %w", err)
	}
	return records, total, nil
}

// LevelCounts groups the latest snapshots matching the non-level filters by
// risk level, feeding the listing summary.
func (r *SnapshotRepository) LevelCounts(ctx context.Context, filter models.AtRiskFilter) (map[models.RiskLevel]int, error) {
	base := `FROM weekly_behavior_snapshots s
JOIN users u ON u.id = s.student_id
JOIN students sp ON sp.user_id = s.student_id`
	where := []string{`s.week_start = (SELECT MAX(ls.week_start) FROM weekly_behavior_snapshots ls WHERE ls.student_id = s.student_id)`}
	args := []interface{}{}
	if filter.Program != "" {
		args = append(args, filter.Program)
		where = append(where, fmt.Sprintf("sp.program = $%d", len(args)))
	}
	if filter.SemesterID != "" {
		args = append(args, filter.SemesterID)
		where = append(where, fmt.Sprintf("sp.semester_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		pos := len(args)
		where = append(where, fmt.Sprintf("(u.full_name ILIKE $%d OR u.email ILIKE $%d OR sp.student_number ILIKE $%d)", pos, pos, pos))
	}
	query := fmt.Sprintf("SELECT s.risk_level, COUNT(*) AS total %s WHERE %s GROUP BY s.risk_level", base, strings.Join(where, " AND "))

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("level counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.RiskLevel]int)
	for rows.Next() {
		var level models.RiskLevel
		var total int
		if err := rows.Scan(&level, &total); err != nil {
			return nil, fmt.Errorf("scan level count: %w", err)
		}
		counts[level] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("level counts rows: %w", err)
	}
	return counts, nil
}
