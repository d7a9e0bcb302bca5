package engine

import (
	"github.com/codeguardian/guardian/internal/models"
)

// Per-severity score penalties. Low findings do not affect the score.
const (
	penaltyCritical = 20
	penaltyHigh     = 10
	penaltyMedium   = 5
)

// Score derives the 0-100 security score: the model's self-reported
// base minus a per-severity penalty for each active finding, clamped
// to [0, 100] whatever the upstream base was.
func Score(base int, counts models.SeverityCounts) int {
	score := base -
		counts.Critical*penaltyCritical -
		counts.High*penaltyHigh -
		counts.Medium*penaltyMedium

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
