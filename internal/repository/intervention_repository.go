package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-insight-api/internal/models"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

// InterventionRepository manages persistence for intervention records.
type InterventionRepository struct {
	db *sqlx.DB
}

// NewInterventionRepository constructs the repository.
func NewInterventionRepository(db *sqlx.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

const interventionColumns = `id, student_id, created_by, type, title, description, notes,
follow_up_date, follow_up_required, trigger_risk_score, trigger_risk_factors,
status, outcome, effectiveness_rating, closed_at, created_at, updated_at`

// Create inserts a new intervention.
func (r *InterventionRepository) Create(ctx context.Context, iv *models.Intervention) error {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now
	if iv.TriggerRiskFactors == nil {
		iv.TriggerRiskFactors = pq.StringArray{}
	}
	const query = `INSERT INTO interventions (id, student_id, created_by, type, title, description, notes,
follow_up_date, follow_up_required, trigger_risk_score, trigger_risk_factors,
status, outcome, effectiveness_rating, closed_at, created_at, updated_at)
VALUES (:id, :student_id, :created_by, :type, :title, :description, :notes,
:follow_up_date, :follow_up_required, :trigger_risk_score, :trigger_risk_factors,
:status, :outcome, :effectiveness_rating, :closed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, iv); err != nil {
		return fmt.Errorf("create intervention: %w", err)
	}
	return nil
}

// GetByID fetches one intervention.
func (r *InterventionRepository) GetByID(ctx context.Context, id string) (*models.Intervention, error) {
	query := fmt.Sprintf("SELECT %s FROM interventions WHERE id = $1", interventionColumns)
	var iv models.Intervention
	if err := r.db.GetContext(ctx, &iv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get intervention: %w", err)
	}
	return &iv, nil
}

// Update writes back the full mutable state of an intervention.
func (r *InterventionRepository) Update(ctx context.Context, iv *models.Intervention) error {
	iv.UpdatedAt = time.Now().UTC()
	const query = `UPDATE interventions SET status = :status, outcome = :outcome,
effectiveness_rating = :effectiveness_rating, notes = :notes,
follow_up_date = :follow_up_date, follow_up_required = :follow_up_required,
closed_at = :closed_at, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, iv); err != nil {
		return fmt.Errorf("update intervention: %w", err)
	}
	return nil
}

// Delete removes an intervention.
func (r *InterventionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM interventions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete intervention: %w", err)
	}
	return nil
}

// List returns interventions matching the filter plus the unpaginated total.
func (r *InterventionRepository) List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.Status != nil && filter.Status.Valid() {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM interventions WHERE %s
ORDER BY created_at DESC LIMIT %d OFFSET %d`, interventionColumns, whereClause, size, offset)
	var items []models.Intervention
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list interventions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM interventions WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interventions: %w", err)
	}
	return items, total, nil
}

// CountOpenByStudents returns the number of non-terminal interventions per
// student id. Students with no open interventions are absent from the map.
func (r *InterventionRepository) CountOpenByStudents(ctx context.Context, studentIDs []string) (map[string]int, error) {
	if len(studentIDs) == 0 {
		return map[string]int{}, nil
	}
	const query = `SELECT student_id, COUNT(*) AS total FROM interventions
WHERE student_id = ANY($1) AND status IN ('pending', 'in_progress')
GROUP BY student_id`
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(studentIDs))
	if err != nil {
		return nil, fmt.Errorf("count open interventions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[string]int, len(studentIDs))
	for rows.Next() {
		var id string
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("scan open intervention count: %w", err)
		}
		counts[id] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("open intervention rows: %w", err)
	}
	return counts, nil
}
