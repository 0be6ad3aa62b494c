package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("report-signing-secret", 24*time.Hour)
	token, expiresAt, err := signer.Generate("job-42", "reports/at_risk_20260831.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	jobID, relPath, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-42", jobID)
	require.Equal(t, "reports/at_risk_20260831.csv", relPath)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpiredToken(t *testing.T) {
	signer := NewSignedURLSigner("report-signing-secret", time.Millisecond*10)
	token, _, err := signer.Generate("job-42", "reports/interventions_20260831.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	// Cleanup still resolves the file behind an expired job.
	jobID, relPath, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-42", jobID)
	require.Equal(t, "reports/interventions_20260831.pdf", relPath)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("report-signing-secret", time.Hour)
	token, _, err := signer.Generate("job-42", "reports/at_risk_20260831.csv")
	require.NoError(t, err)

	body, _, ok := strings.Cut(token, ".")
	require.True(t, ok)

	// Signed under a different secret.
	forged := NewSignedURLSigner("another-secret", time.Hour)
	forgedToken, _, err := forged.Generate("job-42", "reports/at_risk_20260831.csv")
	require.NoError(t, err)
	_, _, _, err = signer.Parse(forgedToken, false)
	require.Error(t, err)

	// Signature stripped.
	_, _, _, err = signer.Parse(body, false)
	require.Error(t, err)
}
