package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeguardian/guardian/internal/ai"
	"github.com/codeguardian/guardian/internal/models"
	"github.com/codeguardian/guardian/pkg/logger"
)

const xssCode = "element.innerHTML = userInput;"

func newTestService(store Store, provider ai.Provider) *Service {
	return NewService(store, provider, WithLogger(logger.NewMockLogger()))
}

func TestAnalyzeInvalidInput(t *testing.T) {
	store := &MockStore{}
	service := newTestService(store, &ai.MockProvider{})

	_, err := service.Analyze(context.Background(), Input{Language: "javascript"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = service.Analyze(context.Background(), Input{Code: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Zero(t, store.Reserved, "invalid input must not consume quota")
}

func TestAnalyzeAnonymousSkipsStore(t *testing.T) {
	store := &MockStore{}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:     xssCode,
		Language: "javascript",
		Persist:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Zero(t, store.Reserved)
	assert.Empty(t, store.Saved)
	assert.True(t, result.Policy.Passed, "anonymous scans have no policy")
}

func TestAnalyzeHappyPath(t *testing.T) {
	store := &MockStore{}
	provider := &ai.MockProvider{
		ReviewFunc: func(_ context.Context, _ ai.Request) (*ai.Review, error) {
			return &ai.Review{
				Summary:   "One redirect issue found.",
				FixedCode: "element.textContent = userInput;",
				Score:     90,
				Issues: []models.Finding{
					{
						Kind:     models.KindVulnerability,
						Severity: models.SeverityMedium,
						Title:    "Unvalidated redirect",
						Origin:   models.OriginAI,
						Line:     5,
					},
				},
			}, nil
		},
	}
	service := newTestService(store, provider)

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
		Persist:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "One redirect issue found.", result.Summary)
	assert.Equal(t, "element.textContent = userInput;", result.FixedCode)
	require.Len(t, result.Findings, 2)

	// One high static finding and one medium AI finding against a
	// base of 90.
	assert.Equal(t, 90-10-5, result.Score)
	assert.Equal(t, 1, result.Counts.High)
	assert.Equal(t, 1, result.Counts.Medium)
	assert.Equal(t, 1, result.Confidence.Medium)
	assert.Equal(t, 1, result.Confidence.Low)
	assert.Len(t, result.Fingerprints, 2)

	assert.Equal(t, 1, store.Reserved)
	assert.Zero(t, store.Released)
	require.Len(t, store.Saved, 1)

	record := store.Saved[0]
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "acct-1", record.AccountID)
	assert.Equal(t, models.CodeHash(xssCode), record.CodeHash)
	assert.Equal(t, result.Score, record.Score)
	assert.Equal(t, result.Fingerprints, record.Fingerprints)
	assert.Len(t, record.StaticFindings, 1)
}

func TestAnalyzeDefaultsLevelToSenior(t *testing.T) {
	provider := &ai.MockProvider{}
	service := newTestService(nil, provider)

	_, err := service.Analyze(context.Background(), Input{Code: "x", Language: "go"})
	require.NoError(t, err)

	requests := provider.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, ai.LevelSenior, requests[0].Level)
}

func TestAnalyzePassesStaticTitlesToProvider(t *testing.T) {
	provider := &ai.MockProvider{}
	service := newTestService(nil, provider)

	_, err := service.Analyze(context.Background(), Input{Code: xssCode, Language: "javascript"})
	require.NoError(t, err)

	requests := provider.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []string{"Potential XSS Vulnerability"}, requests[0].KnownTitles)
}

func TestAnalyzeQuotaExceeded(t *testing.T) {
	store := &MockStore{ReserveErr: models.ErrQuotaExceeded}
	provider := &ai.MockProvider{}
	service := newTestService(store, provider)

	_, err := service.Analyze(context.Background(), Input{
		Code:      "x",
		Language:  "go",
		AccountID: "acct-1",
	})
	assert.ErrorIs(t, err, models.ErrQuotaExceeded)
	assert.Empty(t, provider.Requests(), "quota rejection must precede the model call")
	assert.Zero(t, store.Released)
}

func TestAnalyzeReviewFailureReleasesReservation(t *testing.T) {
	store := &MockStore{}
	provider := &ai.MockProvider{
		ReviewFunc: func(_ context.Context, _ ai.Request) (*ai.Review, error) {
			return nil, errors.New("model exploded")
		},
	}
	service := newTestService(store, provider)

	_, err := service.Analyze(context.Background(), Input{
		Code:      "x",
		Language:  "go",
		AccountID: "acct-1",
	})
	require.Error(t, err)
	assert.Equal(t, 1, store.Reserved)
	assert.Equal(t, 1, store.Released)
	assert.Empty(t, store.Saved)
}

func TestAnalyzePersistFailureStillReturnsResult(t *testing.T) {
	store := &MockStore{SaveErr: errors.New("disk full")}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      "x",
		Language:  "go",
		AccountID: "acct-1",
		Persist:   true,
	})
	require.NoError(t, err, "a failed save does not fail the analysis")
	assert.NotNil(t, result)
	assert.Zero(t, store.Released, "the analysis ran, the reservation stands")
}

func TestAnalyzeStoreReadFailuresDegrade(t *testing.T) {
	store := &MockStore{
		PolicyErr:       errors.New("read failed"),
		SuppressionsErr: errors.New("read failed"),
		LatestErr:       errors.New("read failed"),
		BaselineErr:     errors.New("read failed"),
	}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Policy.Passed)
	assert.Len(t, result.Findings, 1)
}

func TestAnalyzeAppliesSuppressions(t *testing.T) {
	store := &MockStore{
		SuppressionsResult: []models.SuppressionRule{
			{IssueKind: "*", TitleContains: "xss", IsActive: true},
		},
	}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	require.Len(t, result.Suppressed, 1)
	assert.Equal(t, "Potential XSS Vulnerability", result.Suppressed[0].Title)
}

func TestAnalyzeDiffAgainstPreviousScan(t *testing.T) {
	knownFingerprint := models.Fingerprint(models.KindVulnerability, "Potential XSS Vulnerability", 1)
	store := &MockStore{
		LatestResult: &models.ScanRecord{
			ID:           "prev-scan",
			Fingerprints: []string{knownFingerprint, "deadbeef"},
		},
	}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
		Persist:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Diff.NewCount, "the XSS finding carries over")
	assert.Equal(t, 1, result.Diff.FixedCount)
	assert.Equal(t, []string{"deadbeef"}, result.Diff.FixedFingerprints)

	require.Len(t, store.Saved, 1)
	assert.Equal(t, "prev-scan", store.Saved[0].PreviousScanID)
}

func TestAnalyzeDiffAfterCleanPreviousScan(t *testing.T) {
	// A previous scan with no findings is still a previous scan, so a
	// finding now is a regression rather than a first-scan blank.
	store := &MockStore{
		LatestResult: &models.ScanRecord{
			ID:           "prev-scan",
			Fingerprints: []string{},
		},
	}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Diff.NewCount)
	assert.Equal(t, 0, result.Diff.FixedCount)
	require.Len(t, result.Diff.NewFindings, 1)
	assert.Equal(t, "Potential XSS Vulnerability", result.Diff.NewFindings[0].Title)
}

func TestAnalyzeNewSinceBaseline(t *testing.T) {
	knownFingerprint := models.Fingerprint(models.KindVulnerability, "Potential XSS Vulnerability", 1)
	store := &MockStore{
		BaselineResult: &models.Baseline{Fingerprints: []string{knownFingerprint}},
	}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewSinceBaseline)
}

func TestAnalyzePolicyFailure(t *testing.T) {
	store := &MockStore{
		PolicyResult: &models.Policy{MaxCritical: 0, MaxHigh: 0, MaxMedium: 0},
	}
	service := newTestService(store, &ai.MockProvider{})

	result, err := service.Analyze(context.Background(), Input{
		Code:      xssCode,
		Language:  "javascript",
		AccountID: "acct-1",
		Persist:   true,
	})
	require.NoError(t, err, "policy failure is a verdict, not an error")
	assert.False(t, result.Policy.Passed)
	require.Len(t, result.Policy.Violations, 1)
	assert.Equal(t, "High issues: 1 (max: 0)", result.Policy.Violations[0])

	require.Len(t, store.Saved, 1)
	assert.False(t, store.Saved[0].PolicyPassed)
}

func TestAnalyzeClockInjection(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &MockStore{}
	service := NewService(store, &ai.MockProvider{},
		WithLogger(logger.NewMockLogger()),
		WithClock(func() time.Time { return fixed }),
	)

	_, err := service.Analyze(context.Background(), Input{
		Code:      "x",
		Language:  "go",
		AccountID: "acct-1",
		Persist:   true,
	})
	require.NoError(t, err)
	require.Len(t, store.Saved, 1)
	assert.Equal(t, fixed, store.Saved[0].CreatedAt)
}
