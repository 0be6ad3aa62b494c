package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/export"
	"github.com/noah-isme/edu-insight-api/pkg/storage"
)

type exportSnapshotStore interface {
	ListAtRisk(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskRecord, int, error)
}

type exportInterventionStore interface {
	List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets from snapshots and interventions and
// persists the rendered files behind signed download tokens.
type ExportService struct {
	snapshots     exportSnapshotStore
	interventions exportInterventionStore
	storage       fileStorage
	csv           csvRenderer
	pdf           pdfRenderer
	signer        *storage.SignedURLSigner
	logger        *zap.Logger
	cfg           ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(snapshots exportSnapshotStore, interventions exportInterventionStore, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		snapshots:     snapshots,
		interventions: interventions,
		storage:       store,
		csv:           csv,
		pdf:           pdf,
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(job.Params.Program)
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeRiskSummary:
		return s.buildRiskDataset(ctx, job.Params)
	case models.ReportTypeInterventions:
		return s.buildInterventionDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildRiskDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.AtRiskFilter{
		Levels:     params.Levels,
		Program:    params.Program,
		SemesterID: params.SemesterID,
		Page:       1,
		PageSize:   exportPageSize,
	}
	rows, _, err := s.snapshots.ListAtRisk(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Student":        row.FullName,
			"Student Number": row.StudentNumber,
			"Program":        row.Program,
			"Week":           row.WeekStart.Format("2006-01-02"),
			"Risk Score":     fmt.Sprintf("%d", row.RiskScore),
			"Risk Level":     string(row.RiskLevel),
			"Risk Factors":   strings.Join(row.RiskFactors, ", "),
			"Engagement":     fmt.Sprintf("%.2f", row.OverallEngagement),
			"On-Time (%)":    fmt.Sprintf("%.2f", row.OnTimeRate),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Student Number", "Program", "Week", "Risk Score", "Risk Level", "Risk Factors", "Engagement", "On-Time (%)"},
		Rows:    dataRows,
	}
	return dataset, "At-Risk Student Report", nil
}

func (s *ExportService) buildInterventionDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.InterventionFilter{Page: 1, PageSize: exportPageSize}
	rows, _, err := s.interventions.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		closedAt := ""
		if row.ClosedAt != nil {
			closedAt = row.ClosedAt.Format("2006-01-02")
		}
		dataRows = append(dataRows, map[string]string{
			"Student":    row.StudentID,
			"Type":       string(row.Type),
			"Title":      row.Title,
			"Status":     string(row.Status),
			"Outcome":    row.Outcome,
			"Created At": row.CreatedAt.Format("2006-01-02"),
			"Closed At":  closedAt,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Type", "Title", "Status", "Outcome", "Created At", "Closed At"},
		Rows:    dataRows,
	}
	return dataset, "Intervention Report", nil
}

// Matches the repository page-size ceiling.
const exportPageSize = 200
