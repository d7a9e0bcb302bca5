package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/codeguardian/guardian/internal/models"
)

// fencedBlockPattern extracts the body of the first ```-fenced block,
// with or without a json language tag.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// neutralScore is used when the model reports no usable score.
const neutralScore = 50

// reviewPayload is the wire shape of the model's JSON answer.
type reviewPayload struct {
	Summary   string         `json:"summary"`
	FixedCode string         `json:"fixed_code"`
	Issues    []issuePayload `json:"issues"`
	Score     int            `json:"score"`
}

// issuePayload is one model-reported issue. All fields are optional on
// the wire; normalization fills in safe defaults.
type issuePayload struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Fix         string `json:"fix"`
	OwaspID     string `json:"owasp_id"`
	OwaspName   string `json:"owasp_category"`
	CweID       string `json:"cwe_id"`
	Line        int    `json:"line"`
}

// ParseReview turns raw model output into a Review. It prefers JSON
// inside a fenced code block, then the raw text; if neither parses the
// fallback Review carries the raw text as summary, no issues, and a
// neutral score. This fallback is a first-class path: static findings
// remain valid even when the model rambles.
func ParseReview(content string) *Review {
	jsonStr := strings.TrimSpace(content)
	if m := fencedBlockPattern.FindStringSubmatch(content); m != nil {
		jsonStr = strings.TrimSpace(m[1])
	}

	var payload reviewPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return &Review{Summary: content, Score: neutralScore}
	}

	review := &Review{
		Summary:   payload.Summary,
		FixedCode: payload.FixedCode,
		Score:     payload.Score,
		Issues:    make([]models.Finding, 0, len(payload.Issues)),
	}
	if review.Score <= 0 {
		review.Score = neutralScore
	}

	for _, issue := range payload.Issues {
		review.Issues = append(review.Issues, normalizeIssue(issue))
	}
	return review
}

// normalizeIssue maps a loosely-typed model issue onto the Finding
// type, degrading unknown fields to documented defaults.
func normalizeIssue(p issuePayload) models.Finding {
	kind := p.Type
	switch kind {
	case models.KindVulnerability, models.KindBug, models.KindCodeSmell, models.KindPerformance:
	default:
		kind = models.KindCodeSmell
	}

	title := p.Title
	if title == "" {
		title = "Unnamed Issue"
	}

	return models.Finding{
		Kind:         kind,
		Severity:     models.NormalizeSeverity(p.Severity),
		Title:        title,
		Description:  p.Description,
		Remediation:  p.Fix,
		CategoryID:   p.OwaspID,
		CategoryName: p.OwaspName,
		WeaknessID:   p.CweID,
		Line:         p.Line,
		Origin:       models.OriginAI,
	}
}
