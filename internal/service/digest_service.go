package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/config"
)

// Mailer delivers digest messages. Implementations live at the edge; the
// service only depends on this contract.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// DigestService sends administrators a periodic summary of the students most
// in need of attention. It reads the same ranked listing the API serves.
type DigestService struct {
	atRisk *AtRiskService
	mailer Mailer
	logger *zap.Logger
	cfg    config.DigestConfig
}

// NewDigestService constructs the digest sender.
func NewDigestService(atRisk *AtRiskService, mailer Mailer, logger *zap.Logger, cfg config.DigestConfig) *DigestService {
	return &DigestService{atRisk: atRisk, mailer: mailer, logger: logger, cfg: cfg}
}

// Start launches the digest loop. Returns immediately; stops on ctx cancel.
func (s *DigestService) Start(ctx context.Context) {
	if !s.cfg.Enabled || s.mailer == nil || len(s.cfg.Recipients) == 0 {
		s.logger.Info("at-risk digest disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SendDigest(ctx); err != nil {
					s.logger.Error("digest delivery failed", zap.Error(err))
				}
			}
		}
	}()
}

// SendDigest composes and delivers one digest based on the current listing.
func (s *DigestService) SendDigest(ctx context.Context) error {
	page, err := s.atRisk.List(ctx, models.AtRiskFilter{Page: 1, PageSize: 50})
	if err != nil {
		return fmt.Errorf("load at-risk listing: %w", err)
	}

	subject := fmt.Sprintf("At-risk digest: %d students flagged, %d need attention",
		page.Summary.Total, page.Summary.NeedsAttention)
	body := composeDigestBody(page)

	if err := s.mailer.Send(ctx, s.cfg.Recipients, subject, body); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	s.logger.Info("at-risk digest sent",
		zap.Int("students", len(page.Students)),
		zap.Strings("recipients", s.cfg.Recipients))
	return nil
}

func composeDigestBody(page *models.AtRiskPage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flagged students: %d\n", page.Summary.Total)
	for level, count := range page.Summary.ByLevel {
		fmt.Fprintf(&b, "  %s: %d\n", level, count)
	}
	b.WriteString("\nTop students by risk:\n")
	for i, st := range page.Students {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "%2d. %s (%s) score=%d level=%s urgency=%d factors=%s\n",
			i+1, st.FullName, st.StudentNumber, st.RiskScore, st.RiskLevel,
			st.UrgencyScore, strings.Join(st.RiskFactors, ","))
	}
	return b.String()
}

// LogMailer writes digests to the application log. Used until an SMTP or
// webhook transport is configured.
type LogMailer struct {
	Logger *zap.Logger
}

// Send logs the message instead of delivering it.
func (m LogMailer) Send(_ context.Context, to []string, subject, body string) error {
	m.Logger.Info("digest mail",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
