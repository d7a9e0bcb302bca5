package analyzer

import (
	"context"

	"github.com/codeguardian/guardian/internal/models"
)

// Store is the narrow record-store contract the pipeline needs. Lookup
// methods return (nil, nil) when the account has no matching record;
// only genuine store failures are errors.
type Store interface {
	// ActivePolicy returns the account's active policy, if any.
	ActivePolicy(ctx context.Context, accountID string) (*models.Policy, error)

	// ActiveSuppressions returns the account's active suppression rules.
	ActiveSuppressions(ctx context.Context, accountID string) ([]models.SuppressionRule, error)

	// LatestScan returns the account's most recent scan record, if any.
	LatestScan(ctx context.Context, accountID string) (*models.ScanRecord, error)

	// ActiveBaseline returns the account's active baseline, if any.
	ActiveBaseline(ctx context.Context, accountID string) (*models.Baseline, error)

	// SaveScan persists an immutable scan record.
	SaveScan(ctx context.Context, record *models.ScanRecord) error

	// ReserveScan atomically consumes one scan from the account's
	// monthly quota, rolling the billing period over first when the
	// calendar month has changed. Returns models.ErrQuotaExceeded when
	// the account is at its limit.
	ReserveScan(ctx context.Context, accountID string) error

	// ReleaseScan returns a reserved scan to the quota after a
	// pipeline failure.
	ReleaseScan(ctx context.Context, accountID string) error
}
