package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/common/logger"
	"github.com/endrithotii/daskann/internal/model"
)

// maxReminderBatches bounds how many claim rounds one sweep run performs.
const maxReminderBatches = 20

type SweepOptions struct {
	BatchSize    int32
	ClaimTTL     time.Duration
	ClosureGrace time.Duration
}

// SweepResult counts what one sweep run did.
type SweepResult struct {
	Reminders int // reminder notifications dispatched
	Closed    int // open discussions closed because their deadline passed
	Recovered int // closed discussions whose closure batch was recorded late
}

// SweepService runs the periodic maintenance pass: due reminders, expired
// deadlines, and closure batches that were never recorded.
type SweepService interface {
	Run(ctx context.Context) (SweepResult, error)
}

type sweepService struct {
	stores    StoreProvider
	txRunner  TxRunner
	lifecycle LifecycleEngine
	publisher NotificationPublisher
	opts      SweepOptions
	now       func() time.Time
}

func NewSweepService(stores StoreProvider, txRunner TxRunner, lifecycle LifecycleEngine, publisher NotificationPublisher, opts SweepOptions) SweepService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = 5 * time.Minute
	}
	return &sweepService{
		stores:    stores,
		txRunner:  txRunner,
		lifecycle: lifecycle,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

// Run never aborts on a failing step; step errors are joined and returned
// alongside the partial result.
func (s *sweepService) Run(ctx context.Context) (SweepResult, error) {
	runID := id.NewString()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SweepRunID: &runID,
		Component:  "daskann.service.sweep",
	})
	sc := logger.StartSpan(ctx, "sweep.run")
	defer sc.End()
	ctx = sc.Context()

	var (
		result SweepResult
		errs   []error
	)

	n, err := s.dispatchReminders(ctx)
	result.Reminders = n
	if err != nil {
		errs = append(errs, fmt.Errorf("dispatching reminders: %w", err))
	}

	n, err = s.closeExpired(ctx)
	result.Closed = n
	if err != nil {
		errs = append(errs, fmt.Errorf("closing expired discussions: %w", err))
	}

	n, err = s.recoverClosures(ctx)
	result.Recovered = n
	if err != nil {
		errs = append(errs, fmt.Errorf("recovering closure notifications: %w", err))
	}

	sc.Span().SetAttributes(
		attribute.Int("daskann.sweep.reminders", result.Reminders),
		attribute.Int("daskann.sweep.closed", result.Closed),
		attribute.Int("daskann.sweep.recovered", result.Recovered),
	)

	err = errors.Join(errs...)
	if err != nil {
		sc.RecordError(err)
	}

	slog.InfoContext(ctx, "sweep run completed",
		"reminders", result.Reminders,
		"closed", result.Closed,
		"recovered", result.Recovered,
		"failed", err != nil)

	return result, err
}

// dispatchReminders claims due reminders with a fresh token, then records the
// reminder notifications and marks the rows sent in one transaction. Rows whose
// claim was taken over by another run are not marked and not emitted.
func (s *sweepService) dispatchReminders(ctx context.Context) (int, error) {
	total := 0
	for round := 0; round < maxReminderBatches; round++ {
		now := s.now()
		token := id.NewString()

		claimed, err := s.stores.ScheduledNotifications().ClaimDue(ctx, token, now, now.Add(-s.opts.ClaimTTL), s.opts.BatchSize)
		if err != nil {
			return total, fmt.Errorf("claiming due reminders: %w", err)
		}
		if len(claimed) == 0 {
			return total, nil
		}

		ids := make([]int64, len(claimed))
		for i, r := range claimed {
			ids[i] = r.ID
		}

		var batch []model.Notification
		err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
			sent, err := stores.ScheduledNotifications().MarkSent(ctx, ids, token)
			if err != nil {
				return fmt.Errorf("marking reminders sent: %w", err)
			}
			batch = buildReminderBatch(claimed, sent, now)
			if err := stores.Notifications().CreateBatch(ctx, batch); err != nil {
				return fmt.Errorf("recording reminder notifications: %w", err)
			}
			return nil
		})
		if err != nil {
			return total, err
		}

		publish(ctx, s.publisher, batch)
		total += len(batch)

		if int32(len(claimed)) < s.opts.BatchSize {
			return total, nil
		}
	}
	return total, nil
}

// buildReminderBatch emits one reminder per row this run still owned.
func buildReminderBatch(claimed []model.DueReminder, sentIDs []int64, now time.Time) []model.Notification {
	owned := make(map[int64]struct{}, len(sentIDs))
	for _, sentID := range sentIDs {
		owned[sentID] = struct{}{}
	}

	batch := make([]model.Notification, 0, len(sentIDs))
	for _, r := range claimed {
		if _, ok := owned[r.ID]; !ok {
			continue
		}
		message := ReminderMessage(r.DiscussionTitle, r.DeadlineAt, now)
		if r.DiscussionStatus != model.DiscussionStatusOpen {
			message = ClosedReminderMessage(r.DiscussionTitle)
		}
		batch = append(batch, model.Notification{
			ID:           id.New(),
			UserID:       r.UserID,
			DiscussionID: r.DiscussionID,
			Kind:         model.NotificationKindReminder,
			Message:      message,
		})
	}
	return batch
}

func (s *sweepService) closeExpired(ctx context.Context) (int, error) {
	ids, err := s.stores.Discussions().ListExpiredOpenIDs(ctx, s.now(), s.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	closed := 0
	var errs []error
	for _, discussionID := range ids {
		won, err := s.lifecycle.Evaluate(ctx, discussionID)
		if err != nil {
			slog.WarnContext(ctx, "deadline evaluation failed", "discussion_id", discussionID, "error", err)
			errs = append(errs, err)
			continue
		}
		if won {
			closed++
		}
	}
	return closed, errors.Join(errs...)
}

func (s *sweepService) recoverClosures(ctx context.Context) (int, error) {
	ids, err := s.stores.Discussions().ListUnnotifiedClosedIDs(ctx, s.now().Add(-s.opts.ClosureGrace), s.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	recovered := 0
	var errs []error
	for _, discussionID := range ids {
		won, err := s.lifecycle.Finalize(ctx, discussionID)
		if err != nil {
			slog.WarnContext(ctx, "closure recovery failed", "discussion_id", discussionID, "error", err)
			errs = append(errs, err)
			continue
		}
		if won {
			slog.InfoContext(ctx, "recorded missing closure notifications", "discussion_id", discussionID)
			recovered++
		}
	}
	return recovered, errors.Join(errs...)
}
