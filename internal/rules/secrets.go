package rules

import (
	"regexp"

	"github.com/codeguardian/guardian/internal/models"
)

// Secret key types recognized by the classifier.
const (
	KeyTypeStripe   = "Stripe API Key"
	KeyTypeAWS      = "AWS Credentials"
	KeyTypeGitHub   = "GitHub Token"
	KeyTypeAI       = "AI API Key"
	KeyTypePassword = "Password"
	KeyTypeDatabase = "Database Credentials"
	KeyTypeGeneric  = "Generic Secret"
)

var (
	testVocabPattern   = regexp.MustCompile(`(?i)test|demo|sample|example|fake|mock|dummy|sandbox|dev`)
	liveVocabPattern   = regexp.MustCompile(`(?i)live|prod|production`)
	stripeLivePattern  = regexp.MustCompile(`(?i)sk_live`)
	githubTokenPattern = regexp.MustCompile(`(?i)ghp_|gho_`)
	adminVocabPattern  = regexp.MustCompile(`(?i)admin|root|master|super`)
	stripePattern      = regexp.MustCompile(`(?i)stripe`)
	awsPattern         = regexp.MustCompile(`(?i)aws|amazon`)
	githubPattern      = regexp.MustCompile(`(?i)github`)
	aiProviderPattern  = regexp.MustCompile(`(?i)openai|anthropic|gemini`)
	passwordPattern    = regexp.MustCompile(`(?i)password|passwd|pwd`)
	databasePattern    = regexp.MustCompile(`(?i)database|db_|mongodb|postgres|mysql`)
)

// testContextWindow is how much of the file head is searched for test
// vocabulary when classifying a secret.
const testContextWindow = 500

// ClassifySecret infers credential type, privilege level, and
// remediation steps for a line matched by the hardcoded-secret rule.
// The full code text provides surrounding context: test vocabulary in
// the first 500 characters of the file marks the secret as a test key.
func ClassifySecret(code, line string) models.SecretContext {
	isTestKey := testVocabPattern.MatchString(line) ||
		testVocabPattern.MatchString(head(code, testContextWindow))

	keyType, isHighPrivilege, rotationSteps := classifyKeyType(line)

	isLiveKey := !isTestKey && (isHighPrivilege || liveVocabPattern.MatchString(line))

	riskLevel := models.SeverityMedium
	switch {
	case isLiveKey && isHighPrivilege:
		riskLevel = models.SeverityCritical
	case isLiveKey:
		riskLevel = models.SeverityHigh
	case isTestKey:
		riskLevel = models.SeverityLow
	}

	return models.SecretContext{
		RiskLevel:       riskLevel,
		IsTestKey:       isTestKey,
		IsLiveKey:       isLiveKey,
		IsHighPrivilege: isHighPrivilege,
		KeyType:         keyType,
		RotationSteps:   rotationSteps,
	}
}

// classifyKeyType matches provider keywords in priority order. The
// first match wins; unmatched lines classify as a generic secret.
func classifyKeyType(line string) (keyType string, highPrivilege bool, steps []string) {
	switch {
	case stripePattern.MatchString(line):
		return KeyTypeStripe, stripeLivePattern.MatchString(line), []string{
			"1. Go to Stripe Dashboard → Developers → API Keys",
			"2. Roll the compromised key",
			"3. Update all services using the old key",
			"4. Monitor for unauthorized transactions",
		}
	case awsPattern.MatchString(line):
		return KeyTypeAWS, true, []string{
			"1. Immediately deactivate the key in AWS IAM",
			"2. Create a new key pair",
			"3. Update all applications",
			"4. Review CloudTrail for unauthorized access",
		}
	case githubPattern.MatchString(line):
		return KeyTypeGitHub, githubTokenPattern.MatchString(line), []string{
			"1. Revoke token in GitHub Settings → Developer Settings",
			"2. Generate new token with minimal scopes",
			"3. Update CI/CD configurations",
		}
	case aiProviderPattern.MatchString(line):
		return KeyTypeAI, true, []string{
			"1. Revoke key in provider dashboard",
			"2. Generate new key",
			"3. Update environment variables",
			"4. Check usage for unauthorized calls",
		}
	case passwordPattern.MatchString(line):
		return KeyTypePassword, adminVocabPattern.MatchString(line), []string{
			"1. Change the password immediately",
			"2. Review access logs",
			"3. Enable MFA if available",
			"4. Audit affected accounts",
		}
	case databasePattern.MatchString(line):
		return KeyTypeDatabase, true, []string{
			"1. Rotate database credentials",
			"2. Update connection strings",
			"3. Review database access logs",
			"4. Consider IP whitelisting",
		}
	default:
		return KeyTypeGeneric, false, []string{
			"1. Identify the service this key belongs to",
			"2. Revoke and regenerate the key",
			"3. Update all dependent services",
		}
	}
}

// head returns at most the first n bytes of s. Byte slicing is fine
// here since the test vocabulary is ASCII.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
