package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

type fakeInterventionStore struct {
	byID       map[string]*models.Intervention
	created    *models.Intervention
	updated    *models.Intervention
	deleted    string
	listFilter models.InterventionFilter
}

func (f *fakeInterventionStore) Create(_ context.Context, iv *models.Intervention) error {
	iv.ID = "iv-1"
	f.created = iv
	return nil
}

func (f *fakeInterventionStore) GetByID(_ context.Context, id string) (*models.Intervention, error) {
	iv, ok := f.byID[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (f *fakeInterventionStore) Update(_ context.Context, iv *models.Intervention) error {
	f.updated = iv
	return nil
}

func (f *fakeInterventionStore) Delete(_ context.Context, id string) error {
	f.deleted = id
	return nil
}

func (f *fakeInterventionStore) List(_ context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error) {
	f.listFilter = filter
	return nil, 0, nil
}

type fakeStudentDirectory struct {
	exists bool
}

func (f *fakeStudentDirectory) Exists(context.Context, string) (bool, error) {
	return f.exists, nil
}

type recordingAuditSink struct {
	entries []*models.AuditLog
	err     error
}

func (r *recordingAuditSink) Create(_ context.Context, log *models.AuditLog) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, log)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func counselorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "counselor-1", Role: models.RoleCounselor}
}

func TestInterventionCreate(t *testing.T) {
	store := &fakeInterventionStore{}
	audit := &recordingAuditSink{}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, audit, zap.NewNop())

	iv, err := svc.Create(context.Background(), counselorClaims(), models.CreateInterventionRequest{
		StudentID:        "s1",
		Type:             models.InterventionMeeting,
		Title:            "Weekly check-in",
		TriggerRiskScore: 65,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, iv.Status)
	assert.Equal(t, "counselor-1", iv.CreatedBy)
	assert.Nil(t, iv.ClosedAt)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionInterventionCreate, audit.entries[0].Action)
}

func TestInterventionCreateRejectsStudents(t *testing.T) {
	svc := NewInterventionService(&fakeInterventionStore{}, &fakeStudentDirectory{exists: true}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, models.CreateInterventionRequest{
		StudentID: "s1",
		Type:      models.InterventionEmail,
		Title:     "Self help",
	})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestInterventionCreateUnknownType(t *testing.T) {
	svc := NewInterventionService(&fakeInterventionStore{}, &fakeStudentDirectory{exists: true}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), counselorClaims(), models.CreateInterventionRequest{
		StudentID: "s1",
		Type:      "carrier_pigeon",
		Title:     "Odd choice",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestInterventionCreateMissingStudent(t *testing.T) {
	svc := NewInterventionService(&fakeInterventionStore{}, &fakeStudentDirectory{exists: false}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), counselorClaims(), models.CreateInterventionRequest{
		StudentID: "ghost",
		Type:      models.InterventionCall,
		Title:     "Call home",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestInterventionUpdateTerminalStampsClosedAt(t *testing.T) {
	store := &fakeInterventionStore{byID: map[string]*models.Intervention{
		"iv-1": {ID: "iv-1", CreatedBy: "counselor-1", Status: models.StatusInProgress},
	}}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, &recordingAuditSink{}, zap.NewNop())

	done := models.StatusSuccessful
	outcome := "Improved attendance"
	iv, err := svc.Update(context.Background(), counselorClaims(), "iv-1", models.UpdateInterventionRequest{
		Status:  &done,
		Outcome: &outcome,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccessful, iv.Status)
	require.NotNil(t, iv.ClosedAt)
	assert.Equal(t, "Improved attendance", iv.Outcome)
}

func TestInterventionUpdateNonTerminalLeavesClosedAtNil(t *testing.T) {
	store := &fakeInterventionStore{byID: map[string]*models.Intervention{
		"iv-1": {ID: "iv-1", CreatedBy: "counselor-1", Status: models.StatusPending},
	}}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, &recordingAuditSink{}, zap.NewNop())

	next := models.StatusInProgress
	iv, err := svc.Update(context.Background(), counselorClaims(), "iv-1", models.UpdateInterventionRequest{
		Status: &next,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, iv.Status)
	assert.Nil(t, iv.ClosedAt)
}

func TestInterventionUpdateTerminalIsFinal(t *testing.T) {
	store := &fakeInterventionStore{byID: map[string]*models.Intervention{
		"iv-1": {ID: "iv-1", CreatedBy: "counselor-1", Status: models.StatusClosed},
	}}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, nil, zap.NewNop())

	reopen := models.StatusInProgress
	_, err := svc.Update(context.Background(), counselorClaims(), "iv-1", models.UpdateInterventionRequest{Status: &reopen})
	require.ErrorIs(t, err, appErrors.ErrTerminalStatus)
}

func TestInterventionUpdateOwnershipEnforced(t *testing.T) {
	store := &fakeInterventionStore{byID: map[string]*models.Intervention{
		"iv-1": {ID: "iv-1", CreatedBy: "someone-else", Status: models.StatusPending},
	}}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, nil, zap.NewNop())

	notes := "drive-by edit"
	_, err := svc.Update(context.Background(), counselorClaims(), "iv-1", models.UpdateInterventionRequest{Notes: &notes})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	// Admins bypass the creator check.
	_, err = svc.Update(context.Background(), adminClaims(), "iv-1", models.UpdateInterventionRequest{Notes: &notes})
	require.NoError(t, err)
}

func TestInterventionDeleteAdminOnly(t *testing.T) {
	store := &fakeInterventionStore{byID: map[string]*models.Intervention{
		"iv-1": {ID: "iv-1", CreatedBy: "counselor-1", Status: models.StatusPending},
	}}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, &recordingAuditSink{}, zap.NewNop())

	err := svc.Delete(context.Background(), counselorClaims(), "iv-1")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.Delete(context.Background(), adminClaims(), "iv-1")
	require.NoError(t, err)
	assert.Equal(t, "iv-1", store.deleted)
}

func TestInterventionListScopesToCreator(t *testing.T) {
	store := &fakeInterventionStore{}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), counselorClaims(), models.InterventionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "counselor-1", store.listFilter.CreatedBy)

	_, _, err = svc.List(context.Background(), adminClaims(), models.InterventionFilter{})
	require.NoError(t, err)
	assert.Empty(t, store.listFilter.CreatedBy)
}

func TestInterventionAuditFailureIsSwallowed(t *testing.T) {
	store := &fakeInterventionStore{}
	audit := &recordingAuditSink{err: errors.New("audit sink down")}
	svc := NewInterventionService(store, &fakeStudentDirectory{exists: true}, audit, zap.NewNop())

	_, err := svc.Create(context.Background(), counselorClaims(), models.CreateInterventionRequest{
		StudentID: "s1",
		Type:      models.InterventionWarning,
		Title:     "Formal warning",
	})
	require.NoError(t, err)
	assert.NotNil(t, store.created)
}
