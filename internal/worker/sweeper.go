package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/common/logger"
)

type SweeperConfig struct {
	Interval time.Duration
	// RunOnStart triggers one sweep immediately instead of waiting a full interval.
	RunOnStart bool
}

// Sweeper runs the sweep on a fixed interval until stopped.
type Sweeper struct {
	runner SweepRunner
	lock   Locker // optional
	cfg    SweeperConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewSweeper creates a Sweeper. lock may be nil when a single worker is deployed.
func NewSweeper(runner SweepRunner, lock Locker, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Sweeper{
		runner:    runner,
		lock:      lock,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the sweep loop. Blocks until Stop() is called or ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "daskann.worker.sweeper",
	})

	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "sweeper started",
		"interval", s.cfg.Interval,
		"locking", s.lock != nil)

	if s.cfg.RunOnStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "sweeper stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop signals the sweeper to stop and waits for the current run to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

func (s *Sweeper) tick(ctx context.Context) {
	if err := s.sweepOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "sweep cycle error", "error", err)
	}
}

// sweepOnce performs one sweep, skipping it when another worker holds the lease.
func (s *Sweeper) sweepOnce(ctx context.Context) (err error) {
	if s.lock != nil {
		token := id.NewString()
		acquired, lockErr := s.lock.TryAcquire(ctx, token)
		if lockErr != nil {
			// The sweep is safe to run concurrently, so a lock outage only costs duplicate work.
			slog.WarnContext(ctx, "sweep lock unavailable, sweeping anyway", "error", lockErr)
		} else if !acquired {
			slog.DebugContext(ctx, "another worker holds the sweep lock, skipping")
			return nil
		} else {
			defer func() {
				if relErr := s.lock.Release(context.WithoutCancel(ctx), token); relErr != nil {
					slog.WarnContext(ctx, "failed to release sweep lock", "error", relErr)
				}
			}()
		}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in sweep", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	start := time.Now()
	result, err := s.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("sweep run: %w", err)
	}

	if result.Reminders+result.Closed+result.Recovered > 0 {
		slog.InfoContext(ctx, "sweep made progress",
			"reminders", result.Reminders,
			"closed", result.Closed,
			"recovered", result.Recovered,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}
