package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeguardian/guardian/internal/models"
)

// newTestDB opens a uniquely named shared-cache memory database so
// tests do not see each other's data.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing database: %v", err)
		}
	})
	return db
}

func TestPolicyRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.ActivePolicy(ctx, "acct-1")
	require.NoError(t, err)
	assert.Nil(t, got, "no policy configured yet")

	maxLow := 3
	policy := &models.Policy{
		Name:        "strict",
		MaxCritical: 0,
		MaxHigh:     1,
		MaxMedium:   5,
		MaxLow:      &maxLow,
		IgnorePaths: []string{"vendor/"},
		IsActive:    true,
	}
	require.NoError(t, db.CreatePolicy(ctx, "acct-1", policy))

	got, err = db.ActivePolicy(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "strict", got.Name)
	assert.Equal(t, 1, got.MaxHigh)
	require.NotNil(t, got.MaxLow)
	assert.Equal(t, 3, *got.MaxLow)
	assert.Equal(t, []string{"vendor/"}, got.IgnorePaths)

	// Another account sees nothing.
	other, err := db.ActivePolicy(ctx, "acct-2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCreatePolicyReplacesActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &models.Policy{Name: "first", IsActive: true}
	second := &models.Policy{Name: "second", MaxCritical: 2, IsActive: true}
	require.NoError(t, db.CreatePolicy(ctx, "acct-1", first))
	require.NoError(t, db.CreatePolicy(ctx, "acct-1", second))

	got, err := db.ActivePolicy(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Name)
	assert.Equal(t, 2, got.MaxCritical)
}

func TestPolicyNilMaxLow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreatePolicy(ctx, "acct-1", &models.Policy{Name: "lenient", IsActive: true}))

	got, err := db.ActivePolicy(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.MaxLow, "absent max_low must stay nil, not zero")
}

func TestSuppressionRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	rules := []models.SuppressionRule{
		{IssueKind: "*", TitleContains: "localhost", Scope: models.ScopeGlobal, IsActive: true},
		{IssueKind: models.KindCodeSmell, Scope: models.ScopeFile, FilePath: "legacy/", IsActive: true, ExpiresAt: &expires},
	}
	for i := range rules {
		require.NoError(t, db.CreateSuppression(ctx, "acct-1", &rules[i]))
	}

	got, err := db.ActiveSuppressions(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "*", got[0].IssueKind)
	assert.Equal(t, "localhost", got[0].TitleContains)
	assert.Nil(t, got[0].ExpiresAt)

	assert.Equal(t, models.ScopeFile, got[1].Scope)
	assert.Equal(t, "legacy/", got[1].FilePath)
	require.NotNil(t, got[1].ExpiresAt)
	assert.True(t, got[1].ExpiresAt.Equal(expires))
}

func testRecord(id, accountID string, createdAt time.Time) *models.ScanRecord {
	return &models.ScanRecord{
		ID:        id,
		AccountID: accountID,
		CodeHash:  models.CodeHash("code for " + id),
		Language:  "javascript",
		Score:     70,
		Summary:   "one issue",
		Counts:    models.SeverityCounts{High: 1},
		Findings: []models.Finding{
			{
				Kind:        models.KindVulnerability,
				Severity:    models.SeverityHigh,
				Title:       "Potential XSS Vulnerability",
				Origin:      models.OriginStatic,
				Line:        1,
				Fingerprint: "abc123",
			},
		},
		StaticFindings: []models.Finding{
			{Kind: models.KindVulnerability, Severity: models.SeverityHigh, Title: "Potential XSS Vulnerability", Origin: models.OriginStatic, Line: 1},
		},
		Fingerprints: []string{"abc123"},
		NewCount:     1,
		PolicyPassed: true,
		CreatedAt:    createdAt,
	}
}

func TestScanRecordRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	record := testRecord("scan-1", "acct-1", created)
	record.FixedCode = "sanitized();"
	record.PreviousScanID = "scan-0"
	require.NoError(t, db.SaveScan(ctx, record))

	got, err := db.GetScan(ctx, "scan-1")
	require.NoError(t, err)

	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.AccountID, got.AccountID)
	assert.Equal(t, record.CodeHash, got.CodeHash)
	assert.Equal(t, record.Score, got.Score)
	assert.Equal(t, record.Summary, got.Summary)
	assert.Equal(t, record.FixedCode, got.FixedCode)
	assert.Equal(t, record.PreviousScanID, got.PreviousScanID)
	assert.Equal(t, record.Counts, got.Counts)
	assert.Equal(t, record.Fingerprints, got.Fingerprints)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "Potential XSS Vulnerability", got.Findings[0].Title)
	assert.Len(t, got.StaticFindings, 1)
}

func TestGetScanNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetScan(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLatestScan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.LatestScan(ctx, "acct-1")
	require.NoError(t, err)
	assert.Nil(t, got, "no history yet")

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveScan(ctx, testRecord("scan-1", "acct-1", base.Add(-time.Hour))))
	require.NoError(t, db.SaveScan(ctx, testRecord("scan-2", "acct-1", base)))
	require.NoError(t, db.SaveScan(ctx, testRecord("scan-3", "acct-2", base.Add(time.Hour))))

	got, err = db.LatestScan(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "scan-2", got.ID)
}

func TestListScans(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		record := testRecord(fmt.Sprintf("scan-%d", i), "acct-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, db.SaveScan(ctx, record))
	}

	records, err := db.ListScans(ctx, "acct-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "scan-2", records[0].ID, "newest first")
	assert.Equal(t, "scan-1", records[1].ID)
	assert.Equal(t, "acct-1", records[0].AccountID)
}

func TestDeleteScan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveScan(ctx, testRecord("scan-1", "acct-1", time.Now().UTC())))

	err := db.DeleteScan(ctx, "acct-2", "scan-1")
	assert.ErrorIs(t, err, models.ErrNotFound, "only the owner can delete")

	require.NoError(t, db.DeleteScan(ctx, "acct-1", "scan-1"))

	_, err = db.GetScan(ctx, "scan-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBaselineRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.ActiveBaseline(ctx, "acct-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	first, err := db.CreateBaseline(ctx, "acct-1", "v1", []string{"aaa", "bbb"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := db.CreateBaseline(ctx, "acct-1", "v2", []string{"ccc"})
	require.NoError(t, err)

	got, err = db.ActiveBaseline(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID, "newest baseline wins")
	assert.Equal(t, "v2", got.Name)
	assert.Equal(t, []string{"ccc"}, got.Fingerprints)
}

func TestReserveScanEnforcesLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetScanLimit(ctx, "acct-1", 2))

	require.NoError(t, db.ReserveScan(ctx, "acct-1"))
	require.NoError(t, db.ReserveScan(ctx, "acct-1"))

	err := db.ReserveScan(ctx, "acct-1")
	assert.ErrorIs(t, err, models.ErrQuotaExceeded)

	usage, err := db.Usage(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Equal(t, 2, usage.ScansThisMonth, "a rejected reservation must not consume quota")
	assert.Equal(t, 2, usage.ScansLimit)
}

func TestReserveScanCreatesUsageRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReserveScan(ctx, "acct-new"))

	usage, err := db.Usage(ctx, "acct-new")
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Equal(t, 1, usage.ScansThisMonth)
	assert.Equal(t, 50, usage.ScansLimit, "schema default limit")
}

func TestReleaseScan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReserveScan(ctx, "acct-1"))
	require.NoError(t, db.ReleaseScan(ctx, "acct-1"))

	usage, err := db.Usage(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Equal(t, 0, usage.ScansThisMonth)

	// Releasing again never goes below zero.
	require.NoError(t, db.ReleaseScan(ctx, "acct-1"))
	usage, err = db.Usage(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.ScansThisMonth)
}

func TestReserveScanRollsBillingPeriod(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Seed a usage row whose billing period started last month with
	// the quota fully consumed.
	lastMonth := time.Now().UTC().AddDate(0, 0, -40)
	_, err := db.ExecContext(ctx, `
		INSERT INTO usage_tracking (user_id, scans_this_month, scans_limit, billing_period_start)
		VALUES (?, 50, 50, ?)`, "acct-1", lastMonth)
	require.NoError(t, err)

	// The new month resets the counter, so the reservation succeeds.
	require.NoError(t, db.ReserveScan(ctx, "acct-1"))

	usage, err := db.Usage(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Equal(t, 1, usage.ScansThisMonth)
	assert.Equal(t, time.Now().UTC().Month(), usage.BillingPeriodStart.UTC().Month())
}

func TestUsageUnknownAccount(t *testing.T) {
	db := newTestDB(t)

	usage, err := db.Usage(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, usage)
}

func TestSetScanLimitPreservesCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReserveScan(ctx, "acct-1"))
	require.NoError(t, db.SetScanLimit(ctx, "acct-1", 100))

	usage, err := db.Usage(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Equal(t, 100, usage.ScansLimit)
	assert.Equal(t, 1, usage.ScansThisMonth, "raising the limit must not reset usage")
}
