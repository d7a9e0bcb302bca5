package engine

import (
	"time"

	"github.com/codeguardian/guardian/internal/models"
)

// Partition splits findings into active and suppressed sets using the
// account's suppression rules. Suppressed findings are kept for audit
// visibility, not discarded. The operation is idempotent: the same
// findings and rules always produce the same partition.
func Partition(findings []models.Finding, rules []models.SuppressionRule, filePath string, now time.Time) (active, suppressed []models.Finding) {
	active = make([]models.Finding, 0, len(findings))
	suppressed = make([]models.Finding, 0)

	for _, f := range findings {
		if isSuppressed(&f, rules, filePath, now) {
			suppressed = append(suppressed, f)
		} else {
			active = append(active, f)
		}
	}
	return active, suppressed
}

func isSuppressed(f *models.Finding, rules []models.SuppressionRule, filePath string, now time.Time) bool {
	for i := range rules {
		if rules[i].Matches(f, filePath, now) {
			return true
		}
	}
	return false
}
