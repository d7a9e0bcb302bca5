package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeguardian/guardian/internal/models"
)

func TestPartition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	findings := []models.Finding{
		{Kind: models.KindVulnerability, Title: "Potential SQL Injection"},
		{Kind: models.KindCodeSmell, Title: "Hardcoded Localhost"},
		{Kind: models.KindCodeSmell, Title: "Security-Related TODO"},
	}

	rules := []models.SuppressionRule{
		{IssueKind: models.KindCodeSmell, TitleContains: "localhost", IsActive: true},
	}

	active, suppressed := Partition(findings, rules, "", now)
	require.Len(t, active, 2)
	require.Len(t, suppressed, 1)
	assert.Equal(t, "Hardcoded Localhost", suppressed[0].Title)
}

func TestPartitionWildcardGlobalRule(t *testing.T) {
	// An active global rule with wildcard kind and no title filter
	// suppresses everything.
	now := time.Now()
	findings := []models.Finding{
		{Kind: models.KindVulnerability, Title: "Potential SQL Injection"},
		{Kind: models.KindCodeSmell, Title: "Hardcoded Localhost"},
	}
	rules := []models.SuppressionRule{
		{IssueKind: "*", Scope: models.ScopeGlobal, IsActive: true},
	}

	active, suppressed := Partition(findings, rules, "", now)
	assert.Empty(t, active)
	assert.Len(t, suppressed, 2)
}

func TestPartitionNoRules(t *testing.T) {
	findings := []models.Finding{
		{Kind: models.KindVulnerability, Title: "Potential SQL Injection"},
	}

	active, suppressed := Partition(findings, nil, "", time.Now())
	assert.Equal(t, findings, active)
	assert.Empty(t, suppressed)
}

func TestPartitionIsIdempotent(t *testing.T) {
	now := time.Now()
	findings := []models.Finding{
		{Kind: models.KindVulnerability, Title: "Potential SQL Injection"},
		{Kind: models.KindCodeSmell, Title: "Hardcoded Localhost"},
	}
	rules := []models.SuppressionRule{
		{IssueKind: models.KindCodeSmell, IsActive: true},
	}

	active1, suppressed1 := Partition(findings, rules, "", now)
	active2, suppressed2 := Partition(active1, rules, "", now)

	assert.Equal(t, active1, active2)
	assert.Len(t, suppressed1, 1)
	assert.Empty(t, suppressed2)
}
