// Package ai adapts the external language-model provider: it formats
// review requests, parses possibly-malformed responses, and maps
// provider failures onto a tagged error taxonomy.
package ai

import (
	"context"

	"github.com/codeguardian/guardian/internal/models"
)

// Explanation levels select how the model is asked to explain issues.
const (
	LevelJunior = "junior"
	LevelSenior = "senior"
	LevelLead   = "lead"
)

// Request describes one review request to the model provider.
type Request struct {
	Code        string
	Language    string
	Level       string
	KnownTitles []string // static-detector titles the model should not repeat
}

// Review is the parsed model response. When the model's output could
// not be parsed as JSON, Issues is empty, Summary carries the raw text
// and Score is the neutral 50. Parse failure is a recovered state, not
// an error.
type Review struct {
	Summary   string
	FixedCode string
	Issues    []models.Finding
	Score     int
}

// Provider is the single blocking external dependency of the analysis
// pipeline. Implementations must honor ctx cancellation and return
// *Error for upstream failures.
type Provider interface {
	Review(ctx context.Context, req Request) (*Review, error)
}
