package analyzer

import (
	"context"
	"sync"

	"github.com/codeguardian/guardian/internal/models"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	PolicyResult       *models.Policy
	BaselineResult     *models.Baseline
	LatestResult       *models.ScanRecord
	SuppressionsResult []models.SuppressionRule

	PolicyErr       error
	SuppressionsErr error
	LatestErr       error
	BaselineErr     error
	SaveErr         error
	ReserveErr      error
	ReleaseErr      error

	mu       sync.Mutex
	Saved    []*models.ScanRecord
	Reserved int
	Released int
}

// ActivePolicy returns the configured policy.
func (m *MockStore) ActivePolicy(_ context.Context, _ string) (*models.Policy, error) {
	return m.PolicyResult, m.PolicyErr
}

// ActiveSuppressions returns the configured suppression rules.
func (m *MockStore) ActiveSuppressions(_ context.Context, _ string) ([]models.SuppressionRule, error) {
	return m.SuppressionsResult, m.SuppressionsErr
}

// LatestScan returns the configured previous scan.
func (m *MockStore) LatestScan(_ context.Context, _ string) (*models.ScanRecord, error) {
	return m.LatestResult, m.LatestErr
}

// ActiveBaseline returns the configured baseline.
func (m *MockStore) ActiveBaseline(_ context.Context, _ string) (*models.Baseline, error) {
	return m.BaselineResult, m.BaselineErr
}

// SaveScan records the saved scan.
func (m *MockStore) SaveScan(_ context.Context, record *models.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, record)
	return nil
}

// ReserveScan counts reservation attempts.
func (m *MockStore) ReserveScan(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReserveErr != nil {
		return m.ReserveErr
	}
	m.Reserved++
	return nil
}

// ReleaseScan counts released reservations.
func (m *MockStore) ReleaseScan(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReleaseErr != nil {
		return m.ReleaseErr
	}
	m.Released++
	return nil
}
