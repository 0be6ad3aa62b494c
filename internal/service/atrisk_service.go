package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/config"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
)

// AtRiskStore reads persisted snapshot rows for the listing surface.
type AtRiskStore interface {
	ListAtRisk(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskRecord, int, error)
	LevelCounts(ctx context.Context, filter models.AtRiskFilter) (map[models.RiskLevel]int, error)
}

// InterventionCounter reports open interventions per student.
type InterventionCounter interface {
	CountOpenByStudents(ctx context.Context, studentIDs []string) (map[string]int, error)
}

// ListingCache is the read/write cache contract for listing payloads.
type ListingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AtRiskService ranks students by persisted risk and layers on per-request
// presentation scores (composite and urgency). Those derived values are
// intentionally never written back to the snapshot store.
type AtRiskService struct {
	snapshots     AtRiskStore
	interventions InterventionCounter
	cache         ListingCache
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           config.AtRiskConfig
}

// NewAtRiskService constructs the query service.
func NewAtRiskService(
	snapshots AtRiskStore,
	interventions InterventionCounter,
	cache ListingCache,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.AtRiskConfig,
) *AtRiskService {
	return &AtRiskService{
		snapshots:     snapshots,
		interventions: interventions,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
	}
}

// List returns one page of at-risk students plus level summary counts.
func (s *AtRiskService) List(ctx context.Context, filter models.AtRiskFilter) (*models.AtRiskPage, error) {
	normalizeFilter(&filter, s.cfg.MaxPageSize)

	cacheKey := atRiskCacheKey(filter)
	if s.cache != nil {
		started := time.Now()
		var cached models.AtRiskPage
		err := s.cache.Get(ctx, cacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(started))
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("at-risk cache read failed", zap.Error(err))
		}
	}

	records, total, err := s.snapshots.ListAtRisk(ctx, filter)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]string, 0, len(records))
	for _, rec := range records {
		studentIDs = append(studentIDs, rec.StudentID)
	}

	openCounts := map[string]int{}
	if s.interventions != nil && len(studentIDs) > 0 {
		openCounts, err = s.interventions.CountOpenByStudents(ctx, studentIDs)
		if err != nil {
			return nil, err
		}
	}

	students := make([]models.AtRiskStudent, 0, len(records))
	needsAttention := 0
	for _, rec := range records {
		row := enrichAtRiskRecord(rec, openCounts[rec.StudentID])
		if row.NeedsAttention {
			needsAttention++
		}
		students = append(students, row)
	}

	counts, err := s.snapshots.LevelCounts(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &models.AtRiskPage{
		Students: students,
		Summary: models.AtRiskSummary{
			Total:          total,
			ByLevel:        counts,
			NeedsAttention: needsAttention,
		},
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, page, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("at-risk cache write failed", zap.Error(err))
		}
	}

	return page, nil
}

func normalizeFilter(filter *models.AtRiskFilter, maxPageSize int) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.IncludeAll {
		filter.Levels = nil
		return
	}
	if len(filter.Levels) == 0 {
		filter.Levels = []models.RiskLevel{models.RiskWarning, models.RiskAtRisk, models.RiskCritical}
	}
}

func enrichAtRiskRecord(rec models.AtRiskRecord, openInterventions int) models.AtRiskStudent {
	urgency := urgencyScore(rec.RiskLevel, openInterventions, rec.ActiveDays)
	return models.AtRiskStudent{
		StudentID:         rec.StudentID,
		FullName:          rec.FullName,
		Email:             rec.Email,
		StudentNumber:     rec.StudentNumber,
		Program:           rec.Program,
		WeekStart:         rec.WeekStart,
		RiskScore:         rec.RiskScore,
		RiskLevel:         rec.RiskLevel,
		RiskFactors:       rec.RiskFactors,
		OverallEngagement: rec.OverallEngagement,
		ConsistencyScore:  rec.ConsistencyScore,
		OnTimeRate:        rec.OnTimeRate,
		ActiveDays:        rec.ActiveDays,
		OpenInterventions: openInterventions,
		CompositeScore:    compositeScore(rec.OverallEngagement, rec.OnTimeRate, rec.ConsistencyScore),
		UrgencyScore:      urgency,
		NeedsAttention:    urgency >= 50,
		CalculatedAt:      rec.CalculatedAt,
	}
}

// compositeScore blends engagement, punctuality, and consistency into a
// single presentation value rounded to one decimal.
func compositeScore(engagement, onTimeRate, consistency float64) float64 {
	return math.Round((0.4*engagement+0.3*onTimeRate+0.3*consistency)*10) / 10
}

// urgencyScore weights the persisted level and adds penalties for students
// nobody is helping yet and for near-total absence.
func urgencyScore(level models.RiskLevel, openInterventions, activeDays int) int {
	score := 0
	switch level {
	case models.RiskCritical:
		score = 40
	case models.RiskAtRisk:
		score = 25
	case models.RiskWarning:
		score = 10
	}
	if openInterventions == 0 {
		score += 20
	}
	if activeDays < 3 {
		score += 15
	}
	return score
}

func atRiskCacheKey(filter models.AtRiskFilter) string {
	levels := make([]string, 0, len(filter.Levels))
	for _, l := range filter.Levels {
		levels = append(levels, string(l))
	}
	sort.Strings(levels)

	raw := fmt.Sprintf("%s|%v|%s|%s|%s|%d|%d",
		strings.Join(levels, ","), filter.IncludeAll, filter.Program, filter.SemesterID,
		strings.ToLower(filter.Search), filter.Page, filter.PageSize)
	sum := sha1.Sum([]byte(raw))
	return "atrisk:list:" + hex.EncodeToString(sum[:])
}
