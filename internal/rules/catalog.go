// Package rules implements Guardian's deterministic detection pass: a
// fixed catalog of line-oriented pattern rules plus the secret risk
// classifier that refines hardcoded-secret matches.
package rules

import (
	"regexp"

	"github.com/codeguardian/guardian/internal/models"
)

// Category is an OWASP Top 10 (2021) taxonomy reference.
type Category struct {
	ID   string
	Name string
}

// OWASP category keys used by the rule catalog.
const (
	categorySQLInjection     = "sql_injection"
	categoryCommandInjection = "command_injection"
	categoryXSS              = "xss"
	categoryHardcodedSecret  = "hardcoded_secret"
	categoryWeakCrypto       = "weak_crypto"
	categorySSLDisabled      = "ssl_disabled"
	categoryEval             = "eval"
	categorySensitiveLogging = "sensitive_data_logging"
	categoryDefault          = "default"
)

// owaspCategories maps detector kinds onto the external taxonomy. The
// "default" entry is the catch-all for rules with no specific mapping.
var owaspCategories = map[string]Category{
	categorySQLInjection:     {ID: "A03", Name: "Injection"},
	categoryCommandInjection: {ID: "A03", Name: "Injection"},
	categoryXSS:              {ID: "A03", Name: "Injection"},
	categoryHardcodedSecret:  {ID: "A07", Name: "Identification and Authentication Failures"},
	categoryWeakCrypto:       {ID: "A02", Name: "Cryptographic Failures"},
	categorySSLDisabled:      {ID: "A02", Name: "Cryptographic Failures"},
	categoryEval:             {ID: "A03", Name: "Injection"},
	categorySensitiveLogging: {ID: "A09", Name: "Security Logging and Monitoring Failures"},
	categoryDefault:          {ID: "A05", Name: "Security Misconfiguration"},
}

// CategoryFor resolves a rule's category key to its OWASP reference,
// falling back to the catch-all category.
func CategoryFor(key string) Category {
	if c, ok := owaspCategories[key]; ok {
		return c
	}
	return owaspCategories[categoryDefault]
}

// Rule is a single pattern detector: a compiled matcher, the finding
// template it emits, and its category key.
type Rule struct {
	Pattern     *regexp.Regexp
	CategoryKey string
	Kind        string
	Severity    string
	Title       string
	Description string
	Remediation string
	WeaknessID  string
	IsSecret    bool
}

// Catalog returns the fixed rule set, ordered. Matching is
// case-insensitive; each rule is evaluated independently per line.
func Catalog() []Rule {
	return catalog
}

var catalog = []Rule{
	{
		Pattern:     regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|key|secret|password|passwd|pwd|token|auth)\s*[:=]\s*["'][\w-]{16,}["']`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityCritical, // replaced by the secret classifier's risk level
		Title:       "Hardcoded Secret Detected",
		Description: "Credentials or API keys are hardcoded in the source code.",
		Remediation: "Move secrets to environment variables or a secure secret management service.",
		WeaknessID:  "CWE-798",
		CategoryKey: categoryHardcodedSecret,
		IsSecret:    true,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)(?:execute|query|exec)\s*\(\s*["'` + "`" + `].*\$\{|\.query\s*\(\s*` + "`[^`]*" + `\$\{|["'].*\+.*(?:req|request|params|query|body)\.`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityCritical,
		Title:       "Potential SQL Injection",
		Description: "User input appears to be directly concatenated into SQL queries.",
		Remediation: "Use parameterized queries or prepared statements.",
		WeaknessID:  "CWE-89",
		CategoryKey: categorySQLInjection,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)(?:exec|spawn|execSync|spawnSync|execFile)\s*\([^)]*(?:\+|` + "`" + `|\$\{)`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityCritical,
		Title:       "Potential Command Injection",
		Description: "User input may be passed to shell commands without proper sanitization.",
		Remediation: "Avoid shell commands with user input. Use allowlists and escape all input.",
		WeaknessID:  "CWE-78",
		CategoryKey: categoryCommandInjection,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)\.innerHTML\s*=|dangerouslySetInnerHTML`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityHigh,
		Title:       "Potential XSS Vulnerability",
		Description: "Direct HTML injection can lead to Cross-Site Scripting attacks.",
		Remediation: "Use textContent instead of innerHTML, or sanitize HTML with DOMPurify.",
		WeaknessID:  "CWE-79",
		CategoryKey: categoryXSS,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)\beval\s*\(|new\s+Function\s*\(`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityHigh,
		Title:       "Dangerous eval() Usage",
		Description: "eval() can execute arbitrary code and is a security risk.",
		Remediation: "Avoid eval(). Use JSON.parse() for JSON data.",
		WeaknessID:  "CWE-95",
		CategoryKey: categoryEval,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)(?:md5|sha1)\s*\(|createHash\s*\(\s*["'](?:md5|sha1)["']\)`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityMedium,
		Title:       "Weak Cryptographic Hash",
		Description: "MD5 and SHA1 are cryptographically weak.",
		Remediation: "Use SHA-256 or stronger. For passwords, use bcrypt or Argon2.",
		WeaknessID:  "CWE-328",
		CategoryKey: categoryWeakCrypto,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)console\.(?:log|info|warn|error)\s*\([^)]*(?:password|secret|token|key|auth|credential)`),
		Kind:        models.KindCodeSmell,
		Severity:    models.SeverityMedium,
		Title:       "Sensitive Data in Logs",
		Description: "Logging sensitive information can expose credentials.",
		Remediation: "Remove or mask sensitive data before logging.",
		WeaknessID:  "CWE-532",
		CategoryKey: categorySensitiveLogging,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)rejectUnauthorized\s*:\s*false|NODE_TLS_REJECT_UNAUTHORIZED\s*=\s*["']?0|verify\s*=\s*False|ssl\s*=\s*False`),
		Kind:        models.KindVulnerability,
		Severity:    models.SeverityHigh,
		Title:       "SSL Verification Disabled",
		Description: "Disabling SSL verification makes the application vulnerable to MITM attacks.",
		Remediation: "Enable SSL verification. Fix certificate issues properly.",
		WeaknessID:  "CWE-295",
		CategoryKey: categorySSLDisabled,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)(?://|#|/\*)\s*(?:TODO|FIXME|HACK|XXX).*(?:security|auth|password|encrypt)`),
		Kind:        models.KindCodeSmell,
		Severity:    models.SeverityLow,
		Title:       "Security-Related TODO",
		Description: "There are unresolved security-related tasks.",
		Remediation: "Address the security concern before deploying.",
		WeaknessID:  "CWE-546",
		CategoryKey: categoryDefault,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)["'](?:localhost|127\.0\.0\.1|0\.0\.0\.0):\d+["']`),
		Kind:        models.KindCodeSmell,
		Severity:    models.SeverityLow,
		Title:       "Hardcoded Localhost",
		Description: "Hardcoded localhost addresses may cause issues in production.",
		Remediation: "Use environment variables for host configuration.",
		WeaknessID:  "CWE-1188",
		CategoryKey: categoryDefault,
	},
}
