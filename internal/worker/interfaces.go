package worker

import (
	"context"

	"github.com/endrithotii/daskann/internal/service"
)

// SweepRunner abstracts the sweep service for testability.
type SweepRunner interface {
	Run(ctx context.Context) (service.SweepResult, error)
}

// Locker abstracts the distributed lease so that only one worker sweeps at a time.
type Locker interface {
	TryAcquire(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}
