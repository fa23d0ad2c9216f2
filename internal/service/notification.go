package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/store"
)

const defaultInboxLimit = 50

// NotificationPublisher hands committed notifications to external delivery
// gateways. It is only ever called after the inbox rows are committed.
type NotificationPublisher interface {
	Publish(ctx context.Context, notifications []model.Notification) error
}

// newNotificationBatch addresses one message to every user in userIDs.
func newNotificationBatch(kind model.NotificationKind, discussionID int64, userIDs []int64, message string) []model.Notification {
	batch := make([]model.Notification, len(userIDs))
	for i, userID := range userIDs {
		batch[i] = model.Notification{
			ID:           id.New(),
			UserID:       userID,
			DiscussionID: discussionID,
			Kind:         kind,
			Message:      message,
		}
	}
	return batch
}

// publish forwards a committed batch. Delivery is best effort; the inbox row is
// the record of truth, so failures are logged and dropped.
func publish(ctx context.Context, publisher NotificationPublisher, batch []model.Notification) {
	if publisher == nil || len(batch) == 0 {
		return
	}
	if err := publisher.Publish(ctx, batch); err != nil {
		slog.WarnContext(ctx, "failed to publish notifications to delivery feed",
			"count", len(batch),
			"kind", batch[0].Kind,
			"error", err)
	}
}

// InvitationMessage renders the invitation sent to each participant.
func InvitationMessage(inviter, title string, deadline *time.Time, urgency model.Urgency, now time.Time) string {
	return fmt.Sprintf("%s invited you to %q - %s to respond | Urgency: %s",
		inviter, title, TimeRemaining(deadline, now), strings.ToUpper(string(urgency)))
}

// ClosureMessage prefers the consensus label and falls back to the results summary.
func ClosureMessage(title, summary string, analysis *model.ConsensusAnalysis) string {
	if analysis != nil && analysis.Consensus.Label != "" {
		return fmt.Sprintf("Discussion %q has been closed. Consensus reached: %s", title, analysis.Consensus.Label)
	}
	return fmt.Sprintf("Discussion %q has been closed. %s", title, summary)
}

func ReminderMessage(title string, deadline *time.Time, now time.Time) string {
	if deadline == nil || !deadline.After(now) {
		return fmt.Sprintf("Reminder: %q deadline has passed", title)
	}
	return fmt.Sprintf("Reminder: %q deadline in %s", title, ReminderTimeText(deadline.Sub(now)))
}

// ClosedReminderMessage replaces the countdown for reminders that fall due
// after their discussion already closed.
func ClosedReminderMessage(title string) string {
	return fmt.Sprintf("Reminder: %q has closed and no longer accepts responses", title)
}

// ResultsSummary is the human readable outcome stored on every closed discussion.
func ResultsSummary(cause model.ClosedBy, responses int64) string {
	var reason string
	switch cause {
	case model.ClosedByDeadline:
		reason = "due to deadline expiration"
	case model.ClosedByAllResponses:
		reason = "after all participants responded"
	default:
		reason = "by its owner"
	}
	return fmt.Sprintf("Discussion closed %s. Total responses: %d", reason, responses)
}

// TimeRemaining describes the time left until deadline for invitations.
func TimeRemaining(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return "No deadline"
	}
	diff := deadline.Sub(now)
	if diff < 0 {
		return "Expired"
	}

	days := int(diff / (24 * time.Hour))
	hours := int(diff%(24*time.Hour)) / int(time.Hour)
	minutes := int(diff%time.Hour) / int(time.Minute)

	if days > 0 {
		return fmt.Sprintf("%s, %s, %s left", plural(days, "day"), plural(hours, "hour"), plural(minutes, "minute"))
	}
	return fmt.Sprintf("%s, %s left", plural(hours, "hour"), plural(minutes, "minute"))
}

// ReminderTimeText rounds remaining up to whole minutes, and to whole hours
// once an hour or more is left.
func ReminderTimeText(remaining time.Duration) string {
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return plural(minutes, "minute")
	}
	return plural((minutes+59)/60, "hour")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// NotificationService serves a user's inbox.
type NotificationService interface {
	List(ctx context.Context, userID int64, limit int32) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type notificationService struct {
	notifications store.NotificationStore
}

func NewNotificationService(notifications store.NotificationStore) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) List(ctx context.Context, userID int64, limit int32) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultInboxLimit
	}
	items, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return items, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	ok, err := s.notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	return n, nil
}
