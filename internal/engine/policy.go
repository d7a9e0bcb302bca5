package engine

import (
	"fmt"
	"strings"

	"github.com/codeguardian/guardian/internal/models"
)

// EvaluatePolicy judges the active findings against the account's
// policy thresholds. A nil policy passes trivially, as does a file
// path exempted by any ignore-path substring. Violations are reported
// in fixed severity order: critical, high, medium, low.
func EvaluatePolicy(findings []models.Finding, policy *models.Policy, filePath string) models.PolicyEvaluation {
	passed := models.PolicyEvaluation{Passed: true, Violations: []string{}}
	if policy == nil {
		return passed
	}

	if filePath != "" {
		for _, p := range policy.IgnorePaths {
			if p != "" && strings.Contains(filePath, p) {
				return passed
			}
		}
	}

	counts := models.CountBySeverity(findings)
	violations := make([]string, 0, 4)

	if counts.Critical > policy.MaxCritical {
		violations = append(violations, fmt.Sprintf("Critical issues: %d (max: %d)", counts.Critical, policy.MaxCritical))
	}
	if counts.High > policy.MaxHigh {
		violations = append(violations, fmt.Sprintf("High issues: %d (max: %d)", counts.High, policy.MaxHigh))
	}
	if counts.Medium > policy.MaxMedium {
		violations = append(violations, fmt.Sprintf("Medium issues: %d (max: %d)", counts.Medium, policy.MaxMedium))
	}
	if policy.MaxLow != nil && counts.Low > *policy.MaxLow {
		violations = append(violations, fmt.Sprintf("Low issues: %d (max: %d)", counts.Low, *policy.MaxLow))
	}

	return models.PolicyEvaluation{
		Passed:     len(violations) == 0,
		Violations: violations,
	}
}
