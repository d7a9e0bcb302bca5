// Package engine contains the pure transformation stages of the
// analysis pipeline: result fusion with confidence scoring,
// suppression filtering, cross-scan diffing, policy evaluation, and
// score derivation. Every stage returns new slices and never mutates
// its input.
package engine

import (
	"strings"

	"github.com/codeguardian/guardian/internal/models"
)

// Confidence reasons and detection method labels are fixed strings so
// consumers can match on them.
const (
	reasonBoth       = "Detected by both static analysis and AI."
	reasonStaticOnly = "Detected by static pattern matching only."
	reasonAIOnly     = "Detected by AI reasoning only."

	methodStatic = "Static Pattern Match"
	methodAI     = "AI Reasoning"
)

// Fuse concatenates static and AI findings, assigns each a confidence
// tier from cross-detector agreement, and stamps its fingerprint. The
// two detectors may describe the same real issue under different
// titles; no structural deduplication is attempted.
func Fuse(static, aiFindings []models.Finding) []models.Finding {
	fused := make([]models.Finding, 0, len(static)+len(aiFindings))
	fused = append(fused, static...)
	fused = append(fused, aiFindings...)

	for i := range fused {
		f := &fused[i]
		f.Confidence, f.ConfidenceReason, f.DetectionMethods = scoreConfidence(f, static, aiFindings)
		f.Fingerprint = models.Fingerprint(f.Kind, f.Title, f.Line)
	}
	return fused
}

// scoreConfidence implements the cross-confirmation rule: High when a
// finding with a similar title appears in both detector sets, Medium
// for unconfirmed static findings, Low for unconfirmed AI findings.
// Similarity is a first-word substring match on lowercased titles.
func scoreConfidence(f *models.Finding, static, aiFindings []models.Finding) (string, string, []string) {
	word := firstWord(f.Title)
	staticMatch := titleSetContains(static, word)
	aiMatch := titleSetContains(aiFindings, word)

	methods := make([]string, 0, 2)
	if staticMatch || f.Origin == models.OriginStatic {
		methods = append(methods, methodStatic)
	}
	if aiMatch || f.Origin == models.OriginAI {
		methods = append(methods, methodAI)
	}

	if len(methods) >= 2 || (staticMatch && aiMatch) {
		return models.ConfidenceHigh, reasonBoth, []string{methodStatic, methodAI}
	}
	if f.Origin == models.OriginStatic {
		return models.ConfidenceMedium, reasonStaticOnly, []string{methodStatic}
	}
	return models.ConfidenceLow, reasonAIOnly, []string{methodAI}
}

// firstWord returns the lowercased first word of a title.
func firstWord(title string) string {
	lower := strings.ToLower(title)
	if i := strings.IndexByte(lower, ' '); i >= 0 {
		return lower[:i]
	}
	return lower
}

// titleSetContains reports whether any finding's lowercased title
// contains the given word. An empty word never matches an empty set
// semantics-wise: with word "" every non-empty set matches, which is
// the accepted behavior for untitled findings.
func titleSetContains(findings []models.Finding, word string) bool {
	for i := range findings {
		if strings.Contains(strings.ToLower(findings[i].Title), word) {
			return true
		}
	}
	return false
}
