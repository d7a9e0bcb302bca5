// Package analyzer sequences the analysis pipeline: quota reservation,
// static scanning, AI review, fusion, suppression, diffing, policy
// evaluation, scoring, and persistence.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeguardian/guardian/internal/ai"
	"github.com/codeguardian/guardian/internal/engine"
	"github.com/codeguardian/guardian/internal/models"
	"github.com/codeguardian/guardian/internal/rules"
	"github.com/codeguardian/guardian/pkg/logger"
)

// Input describes one analysis request. AccountID is optional:
// anonymous scans skip quota, policy, suppressions, history, and
// persistence entirely.
type Input struct {
	Code      string
	Language  string
	AccountID string
	Level     string
	FilePath  string
	Persist   bool
}

// Service runs the analysis pipeline. Each request is processed
// independently on immutable intermediate values; the only shared
// state is the record store.
type Service struct {
	store     Store
	provider  ai.Provider
	scanner   *rules.Scanner
	logger    logger.Logger
	aiTimeout time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.logger = log
		s.scanner = rules.NewScannerWithLogger(log)
	}
}

// WithAITimeout bounds the model review call. The static path and all
// downstream stages never time out.
func WithAITimeout(d time.Duration) Option {
	return func(s *Service) {
		s.aiTimeout = d
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an analysis service. store may be nil when only
// anonymous scans will be run.
func NewService(store Store, provider ai.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		provider:  provider,
		scanner:   rules.NewScanner(),
		logger:    logger.GetGlobalLogger(),
		aiTimeout: 2 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// accountContext is everything loaded from the store for one request.
type accountContext struct {
	policy       *models.Policy
	previous     *models.ScanRecord
	baseline     *models.Baseline
	suppressions []models.SuppressionRule
}

// Analyze runs the full pipeline and returns the composed result.
// Failures before persistence release the quota reservation and write
// no partial records; a persistence failure alone is logged and the
// in-memory result still returned, since the caller already paid for
// the analysis.
func (s *Service) Analyze(ctx context.Context, input Input) (*models.AnalysisResult, error) {
	if input.Code == "" || input.Language == "" {
		return nil, models.ErrInvalidInput
	}
	if input.Level == "" {
		input.Level = ai.LevelSenior
	}

	withAccount := input.AccountID != "" && s.store != nil

	if withAccount {
		if err := s.store.ReserveScan(ctx, input.AccountID); err != nil {
			return nil, fmt.Errorf("reserving scan quota: %w", err)
		}
	}

	result, record, err := s.runPipeline(ctx, input, withAccount)
	if err != nil {
		if withAccount {
			if relErr := s.store.ReleaseScan(ctx, input.AccountID); relErr != nil {
				s.logger.Warn("failed to release scan reservation", "account", input.AccountID, "error", relErr)
			}
		}
		return nil, err
	}

	if withAccount && input.Persist {
		if err := s.store.SaveScan(ctx, record); err != nil {
			// Best effort: the analysis already ran, return it anyway.
			s.logger.Error("failed to persist scan record", "account", input.AccountID, "error", err)
		}
	}

	return result, nil
}

// runPipeline executes every stage after quota reservation.
func (s *Service) runPipeline(ctx context.Context, input Input, withAccount bool) (*models.AnalysisResult, *models.ScanRecord, error) {
	var acct accountContext
	if withAccount {
		acct = s.loadAccountContext(ctx, input.AccountID)
	}

	s.logger.Info("analyzing code",
		"language", input.Language,
		"bytes", len(input.Code),
		"level", input.Level,
	)

	staticFindings := s.scanner.Scan(input.Code)
	s.logger.Debug("static analysis finished", "findings", len(staticFindings))

	review, err := s.review(ctx, input, staticFindings)
	if err != nil {
		return nil, nil, err
	}

	fused := engine.Fuse(staticFindings, review.Issues)

	active, suppressed := engine.Partition(fused, acct.suppressions, input.FilePath, s.now())

	diff := engine.Diff(active, acct.previous)

	var baselineFingerprints []string
	if acct.baseline != nil {
		baselineFingerprints = acct.baseline.Fingerprints
	}
	newSinceBaseline := engine.NewSinceBaseline(active, baselineFingerprints)

	counts := models.CountBySeverity(active)
	policyResult := engine.EvaluatePolicy(active, acct.policy, input.FilePath)
	score := engine.Score(review.Score, counts)
	fingerprints := engine.Fingerprints(active)

	result := &models.AnalysisResult{
		Summary:    review.Summary,
		FixedCode:  review.FixedCode,
		Findings:   active,
		Suppressed: suppressed,
		Score:      score,
		Counts:     counts,
		Confidence: models.CountByConfidence(active),
		Diff: models.DiffSummary{
			NewCount:          len(diff.NewFindings),
			FixedCount:        len(diff.FixedFingerprints),
			NewFindings:       diff.NewFindings,
			FixedFingerprints: diff.FixedFingerprints,
		},
		NewSinceBaseline: len(newSinceBaseline),
		Policy:           policyResult,
		Fingerprints:     fingerprints,
	}

	record := &models.ScanRecord{
		ID:             uuid.NewString(),
		AccountID:      input.AccountID,
		CodeHash:       models.CodeHash(input.Code),
		Language:       input.Language,
		Score:          score,
		Summary:        review.Summary,
		Counts:         counts,
		Findings:       active,
		FixedCode:      review.FixedCode,
		StaticFindings: staticFindings,
		Fingerprints:   fingerprints,
		NewCount:       len(diff.NewFindings),
		FixedCount:     len(diff.FixedFingerprints),
		PolicyPassed:   policyResult.Passed,
		CreatedAt:      s.now(),
	}
	if acct.previous != nil {
		record.PreviousScanID = acct.previous.ID
	}

	s.logger.Info("analysis complete",
		"active", len(active),
		"suppressed", len(suppressed),
		"score", score,
		"policy_passed", policyResult.Passed,
	)

	return result, record, nil
}

// review calls the model provider under the configured timeout. A
// parse fallback is handled inside the provider; only upstream
// failures surface here.
func (s *Service) review(ctx context.Context, input Input, static []models.Finding) (*ai.Review, error) {
	titles := make([]string, len(static))
	for i := range static {
		titles[i] = static[i].Title
	}

	reviewCtx := ctx
	if s.aiTimeout > 0 {
		var cancel context.CancelFunc
		reviewCtx, cancel = context.WithTimeout(ctx, s.aiTimeout)
		defer cancel()
	}

	review, err := s.provider.Review(reviewCtx, ai.Request{
		Code:        input.Code,
		Language:    input.Language,
		Level:       input.Level,
		KnownTitles: titles,
	})
	if err != nil {
		return nil, fmt.Errorf("model review: %w", err)
	}
	return review, nil
}

// loadAccountContext fetches policy, suppressions, the previous scan,
// and the active baseline. Read failures degrade to an empty context:
// the scan is still worth running without them.
func (s *Service) loadAccountContext(ctx context.Context, accountID string) accountContext {
	var acct accountContext
	var err error

	if acct.policy, err = s.store.ActivePolicy(ctx, accountID); err != nil {
		s.logger.Warn("loading active policy failed", "account", accountID, "error", err)
	}
	if acct.suppressions, err = s.store.ActiveSuppressions(ctx, accountID); err != nil {
		s.logger.Warn("loading suppressions failed", "account", accountID, "error", err)
	}
	if acct.previous, err = s.store.LatestScan(ctx, accountID); err != nil {
		s.logger.Warn("loading previous scan failed", "account", accountID, "error", err)
	}
	if acct.baseline, err = s.store.ActiveBaseline(ctx, accountID); err != nil {
		s.logger.Warn("loading baseline failed", "account", accountID, "error", err)
	}
	return acct
}
