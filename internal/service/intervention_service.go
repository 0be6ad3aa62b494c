package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

// InterventionStore persists interventions.
type InterventionStore interface {
	Create(ctx context.Context, iv *models.Intervention) error
	GetByID(ctx context.Context, id string) (*models.Intervention, error)
	Update(ctx context.Context, iv *models.Intervention) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error)
}

// StudentDirectory confirms that a referenced student exists.
type StudentDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AuditSink records mutations to the append-only audit trail.
type AuditSink interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// InterventionService owns the intervention lifecycle: creation, the status
// state machine, authorization, and best-effort audit logging.
type InterventionService struct {
	store    InterventionStore
	students StudentDirectory
	audit    AuditSink
	validate *validator.Validate
	logger   *zap.Logger

	now func() time.Time
}

// NewInterventionService constructs the service.
func NewInterventionService(store InterventionStore, students StudentDirectory, audit AuditSink, logger *zap.Logger) *InterventionService {
	return &InterventionService{
		store:    store,
		students: students,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new intervention in the pending state. Students may not
// create interventions, not even for themselves.
func (s *InterventionService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateInterventionRequest) (*models.Intervention, error) {
	if actor.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervention payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown intervention type")
	}

	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	now := s.now().UTC()
	iv := &models.Intervention{
		StudentID:          req.StudentID,
		CreatedBy:          actor.UserID,
		Type:               req.Type,
		Title:              req.Title,
		Description:        req.Description,
		FollowUpDate:       req.FollowUpDate,
		FollowUpRequired:   req.FollowUpRequired,
		TriggerRiskScore:   req.TriggerRiskScore,
		TriggerRiskFactors: req.TriggerRiskFactors,
		Status:             models.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Create(ctx, iv); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actor, models.AuditActionInterventionCreate, iv.ID, iv)
	return iv, nil
}

// Get returns one intervention, scoped to the creator for non-admin callers.
func (s *InterventionService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Intervention, error) {
	iv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsAdmin() && iv.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return iv, nil
}

// List pages through interventions. Non-admin callers only see their own.
func (s *InterventionService) List(ctx context.Context, actor *models.JWTClaims, filter models.InterventionFilter) ([]models.Intervention, int, error) {
	if actor.Role == models.RoleStudent {
		return nil, 0, appErrors.ErrForbidden
	}
	if !actor.Role.IsAdmin() {
		filter.CreatedBy = actor.UserID
	}
	return s.store.List(ctx, filter)
}

// Update applies the mutable fields. Moving into a terminal status stamps
// closed_at; attempting to change status once terminal is a conflict.
func (s *InterventionService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateInterventionRequest) (*models.Intervention, error) {
	if actor.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervention payload")
	}

	iv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsAdmin() && iv.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown intervention status")
		}
		if iv.Status.Terminal() && *req.Status != iv.Status {
			return nil, appErrors.ErrTerminalStatus
		}
		if req.Status.Terminal() && !iv.Status.Terminal() {
			closedAt := s.now().UTC()
			iv.ClosedAt = &closedAt
		}
		iv.Status = *req.Status
	}
	if req.Outcome != nil {
		iv.Outcome = *req.Outcome
	}
	if req.EffectivenessRating != nil {
		iv.EffectivenessRating = req.EffectivenessRating
	}
	if req.Notes != nil {
		iv.Notes = *req.Notes
	}
	if req.FollowUpDate != nil {
		iv.FollowUpDate = req.FollowUpDate
	}
	if req.FollowUpRequired != nil {
		iv.FollowUpRequired = *req.FollowUpRequired
	}
	iv.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, iv); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actor, models.AuditActionInterventionUpdate, iv.ID, req)
	return iv, nil
}

// Delete removes an intervention. Admin only.
func (s *InterventionService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if !actor.Role.IsAdmin() {
		return appErrors.ErrForbidden
	}
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.writeAudit(ctx, actor, models.AuditActionInterventionDelete, id, nil)
	return nil
}

// writeAudit records the mutation and swallows any failure.
func (s *InterventionService) writeAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, detail interface{}) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if detail != nil {
		payload, _ = json.Marshal(detail)
	}
	userID := actor.UserID
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "interventions",
		ResourceID: &resourceID,
		Detail:     payload,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
