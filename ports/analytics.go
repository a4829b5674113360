package ports

import (
	"context"

	"semflow/domain/analytics"
)

// AnalyticsBackend is the external statistical-modeling service collaborator.
// Estimation happens there; the engine only hands over prepared columnar
// data and a declarative model specification.
type AnalyticsBackend interface {
	// Health probes availability. Callers bound it with a short timeout
	// before dispatching real work.
	Health(ctx context.Context) error

	// Run dispatches one validated analysis request. The call may suspend
	// for an unbounded duration; cancel via ctx.
	Run(ctx context.Context, req *analytics.Request) (*analytics.Result, error)
}
