package ai

import (
	"context"
	"sync"
)

// MockProvider is a Provider implementation for testing.
type MockProvider struct {
	ReviewFunc func(ctx context.Context, req Request) (*Review, error)
	mu         sync.Mutex
	requests   []Request
}

// Review records the request and delegates to ReviewFunc. Without a
// ReviewFunc it returns an empty review with a neutral score.
func (m *MockProvider) Review(ctx context.Context, req Request) (*Review, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, req)
	}
	return &Review{Score: neutralScore}, nil
}

// Requests returns a copy of all recorded requests.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
