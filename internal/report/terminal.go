// Package report renders analysis results for terminal and JSON
// consumers.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codeguardian/guardian/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case models.SeverityCritical:
		return criticalStyle
	case models.SeverityHigh:
		return highStyle
	case models.SeverityMedium:
		return mediumStyle
	default:
		return lowStyle
	}
}

// Render formats an analysis result for the terminal.
func Render(result *models.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(fmt.Sprintf("Security Score: %d/100", result.Score)))

	if result.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", result.Summary)
	}

	fmt.Fprintf(&b, "%s  critical: %d  high: %d  medium: %d  low: %d\n",
		titleStyle.Render("Findings"),
		result.Counts.Critical, result.Counts.High, result.Counts.Medium, result.Counts.Low)
	fmt.Fprintf(&b, "%s  high: %d  medium: %d  low: %d\n\n",
		titleStyle.Render("Confidence"),
		result.Confidence.High, result.Confidence.Medium, result.Confidence.Low)

	for i := range result.Findings {
		f := &result.Findings[i]
		line := ""
		if f.Line > 0 {
			line = fmt.Sprintf(" (line %d)", f.Line)
		}
		fmt.Fprintf(&b, "  %s %s%s\n",
			severityStyle(f.Severity).Render(fmt.Sprintf("[%s]", f.Severity)),
			f.Title, dimStyle.Render(line))
		if f.CategoryID != "" {
			fmt.Fprintf(&b, "         %s\n", dimStyle.Render(fmt.Sprintf("%s %s  %s  confidence: %s", f.CategoryID, f.CategoryName, f.WeaknessID, f.Confidence)))
		}
		if f.SecretContext != nil {
			fmt.Fprintf(&b, "         %s\n", dimStyle.Render(fmt.Sprintf("secret: %s  risk: %s", f.SecretContext.KeyType, f.SecretContext.RiskLevel)))
		}
	}
	if len(result.Findings) == 0 {
		b.WriteString(dimStyle.Render("  no active findings") + "\n")
	}
	if len(result.Suppressed) > 0 {
		fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d finding(s) suppressed by rules", len(result.Suppressed))))
	}

	fmt.Fprintf(&b, "\n%s  new: %d  fixed: %d  new since baseline: %d\n",
		titleStyle.Render("Changes"), result.Diff.NewCount, result.Diff.FixedCount, result.NewSinceBaseline)

	if result.Policy.Passed {
		fmt.Fprintf(&b, "\n%s\n", passStyle.Render("Policy: PASS"))
	} else {
		fmt.Fprintf(&b, "\n%s\n", failStyle.Render("Policy: FAIL"))
		for _, v := range result.Policy.Violations {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
	}

	return b.String()
}

// RenderJSON formats an analysis result as indented JSON.
func RenderJSON(result *models.AnalysisResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}
