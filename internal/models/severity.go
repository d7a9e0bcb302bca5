package models

// Severity levels as constants for type safety and consistency.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// severityRank orders severities from most to least urgent.
var severityRank = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// ValidSeverities returns all valid severity levels for validation.
func ValidSeverities() []string {
	return []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// IsValidSeverity checks if a severity level is valid.
func IsValidSeverity(severity string) bool {
	_, ok := severityRank[severity]
	return ok
}

// SeverityAtLeast reports whether a is at least as urgent as b.
// Unknown severities rank below low.
func SeverityAtLeast(a, b string) bool {
	return severityRank[a] >= severityRank[b]
}

// NormalizeSeverity maps detector-reported severity strings onto the
// four canonical levels. Anything unrecognized degrades to low rather
// than failing the pipeline.
func NormalizeSeverity(severity string) string {
	switch severity {
	case "critical", "Critical", "CRITICAL":
		return SeverityCritical
	case "high", "High", "HIGH":
		return SeverityHigh
	case "medium", "Medium", "MEDIUM", "moderate":
		return SeverityMedium
	case "low", "Low", "LOW", "info", "informational":
		return SeverityLow
	default:
		return SeverityLow
	}
}
