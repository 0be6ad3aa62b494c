package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/pkg/config"
)

type recordingMailer struct {
	to      []string
	subject string
	body    string
	sent    int
}

func (m *recordingMailer) Send(_ context.Context, to []string, subject, body string) error {
	m.to = to
	m.subject = subject
	m.body = body
	m.sent++
	return nil
}

func TestSendDigest(t *testing.T) {
	store := &fakeAtRiskStore{
		records: []models.AtRiskRecord{
			{
				StudentID:     "s1",
				FullName:      "Aisyah Putri",
				StudentNumber: "2024-001",
				RiskScore:     80,
				RiskLevel:     models.RiskCritical,
				RiskFactors:   []string{models.FactorLowEngagement, models.FactorPoorAttendance},
				ActiveDays:    1,
				WeekStart:     time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			},
		},
		total:  1,
		counts: map[models.RiskLevel]int{models.RiskCritical: 1},
	}
	atRisk := newTestAtRiskService(store, &fakeInterventionCounter{})
	mailer := &recordingMailer{}
	svc := NewDigestService(atRisk, mailer, zap.NewNop(), config.DigestConfig{
		Enabled:    true,
		Recipients: []string{"dean@example.edu"},
	})

	err := svc.SendDigest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, []string{"dean@example.edu"}, mailer.to)
	assert.Contains(t, mailer.subject, "1 students flagged")
	assert.True(t, strings.Contains(mailer.body, "Aisyah Putri"))
	assert.Contains(t, mailer.body, "critical")
}
