package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeguardian/guardian/internal/models"
)

// ActivePolicy returns the account's active policy, or (nil, nil) when
// none is configured.
func (db *DB) ActivePolicy(ctx context.Context, accountID string) (*models.Policy, error) {
	row := db.QueryRowContext(ctx, `
		SELECT name, max_critical, max_high, max_medium, max_low, ignore_paths
		FROM security_policies
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at DESC
		LIMIT 1`, accountID)

	var policy models.Policy
	var maxLow sql.NullInt64
	var ignorePaths string
	err := row.Scan(&policy.Name, &policy.MaxCritical, &policy.MaxHigh, &policy.MaxMedium, &maxLow, &ignorePaths)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active policy: %w", err)
	}

	policy.IsActive = true
	if maxLow.Valid {
		v := int(maxLow.Int64)
		policy.MaxLow = &v
	}
	if err := json.Unmarshal([]byte(ignorePaths), &policy.IgnorePaths); err != nil {
		return nil, fmt.Errorf("decoding ignore_paths: %w", err)
	}
	return &policy, nil
}

// CreatePolicy inserts a policy and deactivates the account's previous
// active one, keeping a single active policy per account.
func (db *DB) CreatePolicy(ctx context.Context, accountID string, policy *models.Policy) error {
	ignorePaths, err := json.Marshal(policy.IgnorePaths)
	if err != nil {
		return fmt.Errorf("encoding ignore_paths: %w", err)
	}

	var maxLow any
	if policy.MaxLow != nil {
		maxLow = *policy.MaxLow
	}

	return db.InTransaction(ctx, func(tx *sql.Tx) error {
		if policy.IsActive {
			if _, err := tx.ExecContext(ctx,
				`UPDATE security_policies SET is_active = 0 WHERE user_id = ?`, accountID); err != nil {
				return fmt.Errorf("deactivating policies: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO security_policies (user_id, name, is_active, max_critical, max_high, max_medium, max_low, ignore_paths)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			accountID, policy.Name, policy.IsActive, policy.MaxCritical, policy.MaxHigh, policy.MaxMedium, maxLow, string(ignorePaths))
		if err != nil {
			return fmt.Errorf("inserting policy: %w", err)
		}
		return nil
	})
}

// ActiveSuppressions returns the account's active suppression rules.
func (db *DB) ActiveSuppressions(ctx context.Context, accountID string) ([]models.SuppressionRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT issue_type, issue_title, scope, file_path, expires_at
		FROM suppression_rules
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying suppressions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []models.SuppressionRule
	for rows.Next() {
		var rule models.SuppressionRule
		var title, filePath sql.NullString
		var expiresAt sql.NullTime
		if err := rows.Scan(&rule.IssueKind, &title, &rule.Scope, &filePath, &expiresAt); err != nil {
			return nil, fmt.Errorf("scanning suppression: %w", err)
		}
		rule.IsActive = true
		rule.TitleContains = title.String
		rule.FilePath = filePath.String
		if expiresAt.Valid {
			t := expiresAt.Time
			rule.ExpiresAt = &t
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateSuppression inserts a suppression rule.
func (db *DB) CreateSuppression(ctx context.Context, accountID string, rule *models.SuppressionRule) error {
	var title, filePath, expiresAt any
	if rule.TitleContains != "" {
		title = rule.TitleContains
	}
	if rule.FilePath != "" {
		filePath = rule.FilePath
	}
	if rule.ExpiresAt != nil {
		expiresAt = rule.ExpiresAt.UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO suppression_rules (user_id, issue_type, issue_title, scope, file_path, is_active, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, rule.IssueKind, title, rule.Scope, filePath, rule.IsActive, expiresAt)
	if err != nil {
		return fmt.Errorf("inserting suppression: %w", err)
	}
	return nil
}

// SaveScan persists an immutable scan record.
func (db *DB) SaveScan(ctx context.Context, record *models.ScanRecord) error {
	issues, err := json.Marshal(record.Findings)
	if err != nil {
		return fmt.Errorf("encoding findings: %w", err)
	}
	staticChecks, err := json.Marshal(record.StaticFindings)
	if err != nil {
		return fmt.Errorf("encoding static findings: %w", err)
	}
	fingerprints, err := json.Marshal(record.Fingerprints)
	if err != nil {
		return fmt.Errorf("encoding fingerprints: %w", err)
	}

	var previousID any
	if record.PreviousScanID != "" {
		previousID = record.PreviousScanID
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO scan_history (
			id, user_id, code_hash, language, score, summary,
			issues_count, critical_count, high_count, medium_count, low_count,
			issues, fixed_code, static_checks, vulnerability_hashes,
			previous_scan_id, new_issues_count, fixed_issues_count, policy_passed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.AccountID, record.CodeHash, record.Language, record.Score, record.Summary,
		len(record.Findings), record.Counts.Critical, record.Counts.High, record.Counts.Medium, record.Counts.Low,
		string(issues), record.FixedCode, string(staticChecks), string(fingerprints),
		previousID, record.NewCount, record.FixedCount, record.PolicyPassed, record.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting scan record: %w", err)
	}
	return nil
}

// LatestScan returns the account's most recent scan, or (nil, nil)
// when the account has no history.
func (db *DB) LatestScan(ctx context.Context, accountID string) (*models.ScanRecord, error) {
	record, err := db.scanRecordQuery(ctx, `
		SELECT id, user_id, code_hash, language, score, summary,
			critical_count, high_count, medium_count, low_count,
			issues, fixed_code, static_checks, vulnerability_hashes,
			previous_scan_id, new_issues_count, fixed_issues_count, policy_passed, created_at
		FROM scan_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return record, err
}

// GetScan returns one scan record by ID.
func (db *DB) GetScan(ctx context.Context, id string) (*models.ScanRecord, error) {
	return db.scanRecordQuery(ctx, `
		SELECT id, user_id, code_hash, language, score, summary,
			critical_count, high_count, medium_count, low_count,
			issues, fixed_code, static_checks, vulnerability_hashes,
			previous_scan_id, new_issues_count, fixed_issues_count, policy_passed, created_at
		FROM scan_history
		WHERE id = ?`, id)
}

func (db *DB) scanRecordQuery(ctx context.Context, query string, args ...any) (*models.ScanRecord, error) {
	row := db.QueryRowContext(ctx, query, args...)

	var record models.ScanRecord
	var issues, staticChecks, fingerprints string
	var previousID sql.NullString
	err := row.Scan(
		&record.ID, &record.AccountID, &record.CodeHash, &record.Language, &record.Score, &record.Summary,
		&record.Counts.Critical, &record.Counts.High, &record.Counts.Medium, &record.Counts.Low,
		&issues, &record.FixedCode, &staticChecks, &fingerprints,
		&previousID, &record.NewCount, &record.FixedCount, &record.PolicyPassed, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scan record: %w", err)
	}

	record.PreviousScanID = previousID.String
	if err := json.Unmarshal([]byte(issues), &record.Findings); err != nil {
		return nil, fmt.Errorf("decoding findings: %w", err)
	}
	if err := json.Unmarshal([]byte(staticChecks), &record.StaticFindings); err != nil {
		return nil, fmt.Errorf("decoding static findings: %w", err)
	}
	if err := json.Unmarshal([]byte(fingerprints), &record.Fingerprints); err != nil {
		return nil, fmt.Errorf("decoding fingerprints: %w", err)
	}
	return &record, nil
}

// ListScans returns the account's scans, newest first.
func (db *DB) ListScans(ctx context.Context, accountID string, limit int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, language, score, issues_count, new_issues_count, fixed_issues_count, policy_passed, created_at
		FROM scan_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scan history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.ScanRecord
	for rows.Next() {
		var r models.ScanRecord
		var issueCount int
		if err := rows.Scan(&r.ID, &r.Language, &r.Score, &issueCount, &r.NewCount, &r.FixedCount, &r.PolicyPassed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning scan summary: %w", err)
		}
		r.AccountID = accountID
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteScan removes one scan record. This is the only mutation
// permitted on scan history, and only by explicit user action.
func (db *DB) DeleteScan(ctx context.Context, accountID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM scan_history WHERE id = ? AND user_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("deleting scan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ActiveBaseline returns the account's active baseline, or (nil, nil).
func (db *DB) ActiveBaseline(ctx context.Context, accountID string) (*models.Baseline, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, issue_hashes, created_at
		FROM scan_baselines
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at DESC
		LIMIT 1`, accountID)

	var baseline models.Baseline
	var hashes string
	err := row.Scan(&baseline.ID, &baseline.Name, &hashes, &baseline.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active baseline: %w", err)
	}

	baseline.AccountID = accountID
	baseline.IsActive = true
	if err := json.Unmarshal([]byte(hashes), &baseline.Fingerprints); err != nil {
		return nil, fmt.Errorf("decoding issue_hashes: %w", err)
	}
	return &baseline, nil
}

// CreateBaseline snapshots a scan's fingerprints as the account's new
// active baseline, deactivating any previous one.
func (db *DB) CreateBaseline(ctx context.Context, accountID, name string, fingerprints []string) (*models.Baseline, error) {
	hashes, err := json.Marshal(fingerprints)
	if err != nil {
		return nil, fmt.Errorf("encoding issue_hashes: %w", err)
	}

	baseline := &models.Baseline{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Name:         name,
		Fingerprints: fingerprints,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	err = db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE scan_baselines SET is_active = 0 WHERE user_id = ?`, accountID); err != nil {
			return fmt.Errorf("deactivating baselines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scan_baselines (id, user_id, name, issue_hashes, is_active, created_at)
			VALUES (?, ?, ?, ?, 1, ?)`,
			baseline.ID, accountID, name, string(hashes), baseline.CreatedAt); err != nil {
			return fmt.Errorf("inserting baseline: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return baseline, nil
}

// ReserveScan atomically consumes one scan from the account's monthly
// quota. The increment and limit check are a single conditional UPDATE
// so two concurrent scans for the same account cannot overshoot the
// limit. The billing period rolls over first when the calendar month
// has changed.
func (db *DB) ReserveScan(ctx context.Context, accountID string) error {
	now := time.Now().UTC()

	return db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO usage_tracking (user_id, scans_this_month, billing_period_start) VALUES (?, 0, ?)`,
			accountID, now); err != nil {
			return fmt.Errorf("initializing usage row: %w", err)
		}

		var periodStart time.Time
		if err := tx.QueryRowContext(ctx,
			`SELECT billing_period_start FROM usage_tracking WHERE user_id = ?`, accountID).Scan(&periodStart); err != nil {
			return fmt.Errorf("reading billing period: %w", err)
		}

		if periodStart.UTC().Month() != now.Month() || periodStart.UTC().Year() != now.Year() {
			if _, err := tx.ExecContext(ctx,
				`UPDATE usage_tracking SET scans_this_month = 0, billing_period_start = ? WHERE user_id = ?`,
				now, accountID); err != nil {
				return fmt.Errorf("rolling billing period: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE usage_tracking
			SET scans_this_month = scans_this_month + 1
			WHERE user_id = ? AND scans_this_month < scans_limit`, accountID)
		if err != nil {
			return fmt.Errorf("incrementing usage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking usage update: %w", err)
		}
		if affected == 0 {
			return models.ErrQuotaExceeded
		}
		return nil
	})
}

// ReleaseScan returns a reserved scan to the quota after a pipeline
// failure, never dropping below zero.
func (db *DB) ReleaseScan(ctx context.Context, accountID string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE usage_tracking
		SET scans_this_month = MAX(scans_this_month - 1, 0)
		WHERE user_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("releasing scan reservation: %w", err)
	}
	return nil
}

// Usage returns the account's current usage counters, or (nil, nil)
// when the account has never scanned.
func (db *DB) Usage(ctx context.Context, accountID string) (*models.Usage, error) {
	row := db.QueryRowContext(ctx, `
		SELECT scans_this_month, scans_limit, billing_period_start
		FROM usage_tracking
		WHERE user_id = ?`, accountID)

	usage := models.Usage{AccountID: accountID}
	err := row.Scan(&usage.ScansThisMonth, &usage.ScansLimit, &usage.BillingPeriodStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying usage: %w", err)
	}
	return &usage, nil
}

// SetScanLimit sets the account's monthly scan limit.
func (db *DB) SetScanLimit(ctx context.Context, accountID string, limit int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO usage_tracking (user_id, scans_this_month, scans_limit, billing_period_start)
		VALUES (?, 0, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET scans_limit = excluded.scans_limit`,
		accountID, limit, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting scan limit: %w", err)
	}
	return nil
}
