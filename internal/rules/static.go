package rules

import (
	"strings"

	"github.com/codeguardian/guardian/internal/models"
	"github.com/codeguardian/guardian/pkg/logger"
)

// Scanner runs the rule catalog over source text line by line. It is
// pure and deterministic: identical input yields identical findings.
type Scanner struct {
	logger logger.Logger
	rules  []Rule
}

// NewScanner creates a scanner over the full rule catalog.
func NewScanner() *Scanner {
	return NewScannerWithLogger(logger.GetGlobalLogger())
}

// NewScannerWithLogger creates a scanner with a custom logger.
func NewScannerWithLogger(log logger.Logger) *Scanner {
	return &Scanner{
		rules:  Catalog(),
		logger: log,
	}
}

// Scan evaluates every rule against every line of code and returns the
// raw static findings. Line numbers are 1-based. No deduplication
// happens here: one line may trigger several rules and one rule may
// trigger on several lines.
func (s *Scanner) Scan(code string) []models.Finding {
	lines := SplitLines(code)
	findings := make([]models.Finding, 0)

	for _, rule := range s.rules {
		for i, line := range lines {
			if !rule.Pattern.MatchString(line) {
				continue
			}
			findings = append(findings, s.buildFinding(rule, code, line, i+1))
		}
	}

	s.logger.Debug("static analysis complete", "lines", len(lines), "findings", len(findings))
	return findings
}

// buildFinding instantiates a rule's template for one matching line.
func (s *Scanner) buildFinding(rule Rule, code, line string, lineNo int) models.Finding {
	category := CategoryFor(rule.CategoryKey)
	finding := models.Finding{
		Kind:         rule.Kind,
		Severity:     rule.Severity,
		Title:        rule.Title,
		Description:  rule.Description,
		Remediation:  rule.Remediation,
		WeaknessID:   rule.WeaknessID,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Origin:       models.OriginStatic,
		Line:         lineNo,
	}

	if rule.IsSecret {
		ctx := ClassifySecret(code, line)
		finding.SecretContext = &ctx
		finding.Severity = ctx.RiskLevel
	}
	return finding
}

// SplitLines splits source text into lines, treating \n, \r\n, and
// lone \r identically so line attribution does not depend on the
// submitting platform's newline convention.
func SplitLines(code string) []string {
	normalized := strings.ReplaceAll(code, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}
