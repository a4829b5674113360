package analytics

import (
	"context"
	"sync"

	"semflow/domain/analytics"
)

// MockBackend is an in-memory AnalyticsBackend for testing.
type MockBackend struct {
	HealthErr error             // Set to simulate an unavailable backend
	RunErr    error             // Set to simulate a run failure
	Result    *analytics.Result // Returned on successful runs
	Delay     chan struct{}     // If set, Run blocks until closed or ctx done

	mu       sync.Mutex
	requests []*analytics.Request
}

func (m *MockBackend) Health(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockBackend) Run(ctx context.Context, req *analytics.Request) (*analytics.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Delay != nil {
		select {
		case <-m.Delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.RunErr != nil {
		return nil, m.RunErr
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &analytics.Result{Kind: req.Config.Kind, Summary: "ok"}, nil
}

// Requests returns a snapshot of every dispatched request.
func (m *MockBackend) Requests() []*analytics.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*analytics.Request, len(m.requests))
	copy(out, m.requests)
	return out
}
