package models

import (
	"errors"
	"strings"
	"time"
)

// Domain errors surfaced by the analysis pipeline and the record store.
// They are sentinels so callers can branch on them with errors.Is.
var (
	// ErrInvalidInput is returned when code or language is missing.
	ErrInvalidInput = errors.New("code and language are required")
	// ErrQuotaExceeded is returned when an account is at its monthly
	// scan limit.
	ErrQuotaExceeded = errors.New("monthly scan limit reached")
	// ErrNotFound is returned by record lookups that match nothing.
	ErrNotFound = errors.New("record not found")
)

// Suppression scopes.
const (
	ScopeGlobal = "global"
	ScopeFile   = "file"
	ScopeRepo   = "repo"
)

// Policy is an account's severity-threshold gate. A nil MaxLow means
// low findings are unconstrained.
type Policy struct {
	MaxLow      *int     `json:"max_low"`
	Name        string   `json:"name"`
	IgnorePaths []string `json:"ignore_paths"`
	MaxCritical int      `json:"max_critical"`
	MaxHigh     int      `json:"max_high"`
	MaxMedium   int      `json:"max_medium"`
	IsActive    bool     `json:"is_active"`
}

// SuppressionRule excludes accepted findings from the active set.
// IssueKind may be "*" to match any kind.
type SuppressionRule struct {
	ExpiresAt     *time.Time `json:"expires_at"`
	IssueKind     string     `json:"issue_type"`
	TitleContains string     `json:"issue_title"`
	Scope         string     `json:"scope"`
	FilePath      string     `json:"file_path"`
	IsActive      bool       `json:"is_active"`
}

// Matches reports whether the rule suppresses the finding. filePath is
// the optional path of the scanned file; now is the evaluation time
// for expiry checks.
func (r *SuppressionRule) Matches(f *Finding, filePath string, now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.ExpiresAt != nil && r.ExpiresAt.Before(now) {
		return false
	}

	kindMatch := r.IssueKind == "*" || r.IssueKind == f.Kind
	titleMatch := r.TitleContains == "" ||
		strings.Contains(strings.ToLower(f.Title), strings.ToLower(r.TitleContains))

	if r.Scope == ScopeFile && filePath != "" && r.FilePath != "" {
		return kindMatch && titleMatch && strings.Contains(filePath, r.FilePath)
	}
	return kindMatch && titleMatch
}

// ScanRecord is the immutable persisted outcome of one completed
// analysis. It is created once, never mutated, and deleted only by
// explicit user action.
type ScanRecord struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id"`
	AccountID      string    `json:"user_id"`
	CodeHash       string    `json:"code_hash"`
	Language       string    `json:"language"`
	Summary        string    `json:"summary"`
	FixedCode      string    `json:"fixed_code,omitempty"`
	PreviousScanID string    `json:"previous_scan_id,omitempty"`
	Findings       []Finding `json:"issues"`
	StaticFindings []Finding `json:"static_checks"`
	Fingerprints   []string  `json:"vulnerability_hashes"`
	Score          int       `json:"score"`
	Counts         SeverityCounts
	NewCount       int  `json:"new_issues_count"`
	FixedCount     int  `json:"fixed_issues_count"`
	PolicyPassed   bool `json:"policy_passed"`
}

// Baseline is a named fingerprint snapshot from one historical scan,
// used to keep known accepted findings out of the new-issue count.
type Baseline struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	AccountID    string    `json:"user_id"`
	Name         string    `json:"name"`
	Fingerprints []string  `json:"issue_hashes"`
	IsActive     bool      `json:"is_active"`
}

// Usage tracks an account's scans in the current billing period.
type Usage struct {
	BillingPeriodStart time.Time `json:"billing_period_start"`
	AccountID          string    `json:"user_id"`
	ScansThisMonth     int       `json:"scans_this_month"`
	ScansLimit         int       `json:"scans_limit"`
}

// PolicyEvaluation is the pass/fail verdict with one violation message
// per breached severity tier.
type PolicyEvaluation struct {
	Violations []string `json:"violations"`
	Passed     bool     `json:"passed"`
}

// DiffSummary describes how the active finding set changed relative to
// the previous scan. Fixed findings exist only as bare fingerprints
// because the originating findings are no longer available.
type DiffSummary struct {
	NewFindings       []Finding `json:"new_issue_details"`
	FixedFingerprints []string  `json:"fixed_issue_hashes"`
	NewCount          int       `json:"new_issues"`
	FixedCount        int       `json:"fixed_issues"`
}

// AnalysisResult is the composed output of one analysis request.
type AnalysisResult struct {
	Summary          string           `json:"summary"`
	FixedCode        string           `json:"fixed_code,omitempty"`
	Findings         []Finding        `json:"issues"`
	Suppressed       []Finding        `json:"suppressed_issues"`
	Fingerprints     []string         `json:"vulnerability_hashes"`
	Counts           SeverityCounts   `json:"severity_counts"`
	Confidence       ConfidenceCounts `json:"confidence_distribution"`
	Diff             DiffSummary      `json:"diff"`
	Policy           PolicyEvaluation `json:"policy_evaluation"`
	Score            int              `json:"score"`
	NewSinceBaseline int              `json:"new_since_baseline"`
}
