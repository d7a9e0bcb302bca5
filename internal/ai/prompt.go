package ai

import (
	"fmt"
	"strings"
)

// explanationContext returns the level-specific instruction fragment.
func explanationContext(level string) string {
	switch level {
	case LevelJunior:
		return "Explain issues in simple terms for a junior developer. Use analogies."
	case LevelSenior:
		return "Provide concise, technical explanations. Include CWE references."
	case LevelLead:
		return "Provide detailed analysis with threat modeling, compliance implications (OWASP, PCI-DSS)."
	default:
		return ""
	}
}

// systemPrompt assembles the full system instruction, including the
// titles already found statically so the model does not repeat them.
func systemPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a security expert. %s\n\n", explanationContext(req.Level))
	b.WriteString("Analyze the code for security vulnerabilities, bugs, and poor practices.\n")

	if len(req.KnownTitles) > 0 {
		fmt.Fprintf(&b, "Already detected: %s. Don't repeat these.\n", strings.Join(req.KnownTitles, ", "))
	}

	b.WriteString("\nFor each NEW issue, provide: type, severity (critical/high/medium/low), title, line, description, fix, owasp_id (A01-A10), cwe_id.\n\n")
	b.WriteString(`Respond in JSON: { "summary": "...", "issues": [...], "fixed_code": "...", "score": 0-100 }`)
	return b.String()
}

// userPrompt wraps the code in a fenced block tagged with its language.
func userPrompt(req Request) string {
	return fmt.Sprintf("Analyze this %s code:\n```%s\n%s\n```", req.Language, req.Language, req.Code)
}
