package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/dto"
	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/internal/repository"
	"github.com/noah-isme/edu-insight-api/pkg/jobs"
)

type memoryReportStore struct {
	jobsByID map[string]*models.ReportJob
}

func newMemoryReportStore() *memoryReportStore {
	return &memoryReportStore{jobsByID: map[string]*models.ReportJob{}}
}

func (m *memoryReportStore) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	cp := *job
	m.jobsByID[job.ID] = &cp
	return nil
}

func (m *memoryReportStore) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobsByID[id]
	if !ok {
		return nil, context.Canceled
	}
	cp := *job
	return &cp, nil
}

func (m *memoryReportStore) Update(_ context.Context, id string, params repository.UpdateReportJobParams) error {
	job := m.jobsByID[id]
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *memoryReportStore) ListQueued(context.Context, int) ([]models.ReportJob, error) {
	return nil, nil
}

func (m *memoryReportStore) ListFinishedBefore(context.Context, time.Time, int) ([]models.ReportJob, error) {
	return nil, nil
}

type recordingDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (r *recordingDispatcher) Enqueue(job jobs.Job) error {
	if r.err != nil {
		return r.err
	}
	r.enqueued = append(r.enqueued, job)
	return nil
}

func TestReportCreateJobEnqueues(t *testing.T) {
	store := newMemoryReportStore()
	queue := &recordingDispatcher{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeRiskSummary,
		Format: models.ReportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestReportCreateJobRejectsUnknownType(t *testing.T) {
	svc := NewReportService(newMemoryReportStore(), &recordingDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   "parking_tickets",
		Format: models.ReportFormatCSV,
	}, "admin-1")
	require.Error(t, err)
}

func TestReportGetStatusOwnership(t *testing.T) {
	store := newMemoryReportStore()
	require.NoError(t, store.Create(context.Background(), &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeRiskSummary,
		Status:    models.ReportStatusFinished,
		Progress:  100,
		CreatedBy: "teacher-1",
	}))
	svc := NewReportService(store, &recordingDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.GetStatus(context.Background(), "job-1", "teacher-2", models.RoleTeacher)
	require.Error(t, err)

	status, err := svc.GetStatus(context.Background(), "job-1", "teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)

	// Admins see everyone's jobs.
	_, err = svc.GetStatus(context.Background(), "job-1", "admin-1", models.RoleAdmin)
	require.NoError(t, err)
}
