package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/endrithotii/daskann/common/logger"
	"github.com/endrithotii/daskann/internal/model"
)

// LifecycleEngine owns the open->closed transition of discussions.
//
// Every method is safe to call redundantly and concurrently. The transition is
// a single conditional update, so exactly one caller wins it; only the winner
// stores the results summary, and the closure notification batch is recorded
// at most once per discussion.
type LifecycleEngine interface {
	// Evaluate closes the discussion if its deadline has passed or every
	// participant has responded. Returns true only for the caller that closed it.
	Evaluate(ctx context.Context, discussionID int64) (bool, error)
	// Close closes an open discussion with the given cause.
	Close(ctx context.Context, discussionID int64, cause model.ClosedBy) (bool, error)
	// Finalize runs analysis and records the closure notification batch for a
	// closed discussion that has none yet. Returns true if this call recorded it.
	Finalize(ctx context.Context, discussionID int64) (bool, error)
}

type lifecycleEngine struct {
	stores    StoreProvider
	txRunner  TxRunner
	analyzer  ConsensusAnalyzer
	publisher NotificationPublisher
	now       func() time.Time
}

func NewLifecycleEngine(stores StoreProvider, txRunner TxRunner, analyzer ConsensusAnalyzer, publisher NotificationPublisher) LifecycleEngine {
	return &lifecycleEngine{
		stores:    stores,
		txRunner:  txRunner,
		analyzer:  analyzer,
		publisher: publisher,
		now:       time.Now,
	}
}

func (e *lifecycleEngine) Evaluate(ctx context.Context, discussionID int64) (bool, error) {
	d, err := getDiscussion(ctx, e.stores, discussionID)
	if err != nil {
		return false, err
	}
	if !d.IsOpen() {
		return false, nil
	}

	if d.DeadlinePassed(e.now()) {
		return e.Close(ctx, discussionID, model.ClosedByDeadline)
	}

	tally, err := e.stores.Participants().Tally(ctx, discussionID)
	if err != nil {
		return false, fmt.Errorf("counting participants: %w", err)
	}
	if tally.AllResponded() {
		return e.Close(ctx, discussionID, model.ClosedByAllResponses)
	}

	return false, nil
}

func (e *lifecycleEngine) Close(ctx context.Context, discussionID int64, cause model.ClosedBy) (bool, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DiscussionID: logger.Ptr(discussionID),
		Component:    "daskann.service.lifecycle",
	})
	sc := logger.StartSpan(ctx, "lifecycle.close",
		trace.WithAttributes(attribute.String("daskann.closed_by", string(cause))))
	defer sc.End()
	ctx = sc.Context()

	var (
		won     bool
		summary string
	)
	err := e.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		closed, _, err := stores.Discussions().CloseIfOpen(ctx, discussionID, cause)
		if err != nil {
			return fmt.Errorf("closing discussion: %w", err)
		}
		if !closed {
			return nil
		}

		count, err := stores.Responses().Count(ctx, discussionID)
		if err != nil {
			return fmt.Errorf("counting responses: %w", err)
		}
		summary = ResultsSummary(cause, count)
		if err := stores.Discussions().SetResultsSummary(ctx, discussionID, summary); err != nil {
			return fmt.Errorf("saving results summary: %w", err)
		}

		won = true
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return false, err
	}
	if !won {
		slog.DebugContext(ctx, "discussion already closed by another caller")
		return false, nil
	}

	slog.InfoContext(ctx, "discussion closed", "closed_by", cause, "summary", summary)

	// The transition is committed. Fan-out failures are left for the sweep,
	// which finalizes closed discussions that never recorded their batch.
	if _, err := e.Finalize(ctx, discussionID); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "closure fan-out failed, sweep will retry", "error", err)
	}

	return true, nil
}

func (e *lifecycleEngine) Finalize(ctx context.Context, discussionID int64) (bool, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DiscussionID: logger.Ptr(discussionID),
		Component:    "daskann.service.lifecycle",
	})
	sc := logger.StartSpan(ctx, "lifecycle.finalize")
	defer sc.End()
	ctx = sc.Context()

	d, err := getDiscussion(ctx, e.stores, discussionID)
	if err != nil {
		return false, err
	}
	if d.IsOpen() || d.ClosureNotifiedAt != nil {
		return false, nil
	}

	analysis := e.analyze(ctx, d)

	participants, err := e.stores.Participants().List(ctx, discussionID)
	if err != nil {
		return false, fmt.Errorf("listing participants: %w", err)
	}
	userIDs := make([]int64, len(participants))
	for i, p := range participants {
		userIDs[i] = p.UserID
	}

	var batch []model.Notification
	err = e.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		recorded, err := stores.Discussions().MarkClosureNotified(ctx, discussionID)
		if err != nil {
			return fmt.Errorf("marking closure notified: %w", err)
		}
		if !recorded {
			// Another caller sent the batch. Keep this analysis if that caller had none.
			if analysis != nil {
				kept, err := stores.Discussions().SetAnalysisIfMissing(ctx, discussionID, analysis)
				if err != nil {
					return fmt.Errorf("saving late analysis: %w", err)
				}
				if kept {
					slog.InfoContext(ctx, "stored analysis from a concurrent finalize")
				}
			}
			return nil
		}

		if analysis != nil {
			if err := stores.Discussions().SetAnalysis(ctx, discussionID, analysis); err != nil {
				return fmt.Errorf("saving analysis: %w", err)
			}
		}

		batch = newNotificationBatch(model.NotificationKindClosure, discussionID, userIDs,
			ClosureMessage(d.Title, d.ResultsSummary, analysis))
		if err := stores.Notifications().CreateBatch(ctx, batch); err != nil {
			batch = nil
			return fmt.Errorf("recording closure notifications: %w", err)
		}
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return false, err
	}
	if batch == nil {
		return false, nil
	}

	slog.InfoContext(ctx, "closure notifications recorded",
		"recipients", len(batch),
		"analysis_available", analysis != nil)

	publish(ctx, e.publisher, batch)
	return true, nil
}

// analyze is best effort: any failure leaves the discussion without analysis.
func (e *lifecycleEngine) analyze(ctx context.Context, d *model.Discussion) *model.ConsensusAnalysis {
	if e.analyzer == nil {
		return nil
	}

	responses, err := e.stores.Responses().ListByDiscussion(ctx, d.ID)
	if err != nil {
		slog.WarnContext(ctx, "analysis unavailable: listing responses failed", "error", err)
		return nil
	}
	if len(responses) == 0 {
		return nil
	}

	analysis, err := e.analyzer.Analyze(ctx, d.Prompt, responseTexts(responses))
	if err != nil {
		slog.WarnContext(ctx, "analysis unavailable, closing without consensus",
			"responses", len(responses),
			"error", err)
		return nil
	}
	return analysis
}
