package engine

import (
	"github.com/codeguardian/guardian/internal/models"
)

// DiffResult classifies the current active findings against the
// previous scan's fingerprints: new = current \ previous, fixed =
// previous \ current, unchanged = current ∩ previous. Fixed issues
// exist only as fingerprints since their findings are gone.
type DiffResult struct {
	NewFindings       []models.Finding
	Unchanged         []models.Finding
	FixedFingerprints []string
}

// Diff computes the change set relative to the previous scan. A nil
// previous means this is the first scan: new and fixed stay empty. A
// previous scan with zero fingerprints is a real clean scan, so every
// current finding counts as new against it.
func Diff(current []models.Finding, previous *models.ScanRecord) DiffResult {
	result := DiffResult{
		NewFindings:       make([]models.Finding, 0),
		Unchanged:         make([]models.Finding, 0),
		FixedFingerprints: make([]string, 0),
	}
	if previous == nil {
		return result
	}

	prevSet := make(map[string]struct{}, len(previous.Fingerprints))
	for _, fp := range previous.Fingerprints {
		prevSet[fp] = struct{}{}
	}
	currentSet := make(map[string]struct{}, len(current))
	for i := range current {
		currentSet[current[i].Fingerprint] = struct{}{}
	}

	for _, f := range current {
		if _, ok := prevSet[f.Fingerprint]; ok {
			result.Unchanged = append(result.Unchanged, f)
		} else {
			result.NewFindings = append(result.NewFindings, f)
		}
	}
	for _, fp := range previous.Fingerprints {
		if _, ok := currentSet[fp]; !ok {
			result.FixedFingerprints = append(result.FixedFingerprints, fp)
		}
	}
	return result
}

// NewSinceBaseline returns the active findings whose fingerprints are
// not in the baseline snapshot. With no baseline every active finding
// counts as new.
func NewSinceBaseline(current []models.Finding, baseline []string) []models.Finding {
	if len(baseline) == 0 {
		return current
	}

	baseSet := make(map[string]struct{}, len(baseline))
	for _, fp := range baseline {
		baseSet[fp] = struct{}{}
	}

	fresh := make([]models.Finding, 0, len(current))
	for _, f := range current {
		if _, ok := baseSet[f.Fingerprint]; !ok {
			fresh = append(fresh, f)
		}
	}
	return fresh
}

// Fingerprints extracts the fingerprint list from a finding set, in
// order, for persistence and future diffing.
func Fingerprints(findings []models.Finding) []string {
	fps := make([]string, len(findings))
	for i := range findings {
		fps[i] = findings[i].Fingerprint
	}
	return fps
}
