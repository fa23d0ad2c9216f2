package store

import (
	"context"
	"fmt"
	"time"

	"github.com/endrithotii/daskann/core/db/sqlc"
	"github.com/endrithotii/daskann/internal/model"
)

type scheduledNotificationStore struct {
	queries *sqlc.Queries
}

func newScheduledNotificationStore(queries *sqlc.Queries) ScheduledNotificationStore {
	return &scheduledNotificationStore{queries: queries}
}

func (s *scheduledNotificationStore) CreateBatch(ctx context.Context, reminders []model.ScheduledNotification) error {
	if len(reminders) == 0 {
		return nil
	}
	first := reminders[0]
	ids := make([]int64, len(reminders))
	userIDs := make([]int64, len(reminders))
	for i, r := range reminders {
		if r.DiscussionID != first.DiscussionID || !r.NotifyAt.Equal(first.NotifyAt) {
			return fmt.Errorf("scheduled notification batch must share discussion and notify_at")
		}
		ids[i] = r.ID
		userIDs[i] = r.UserID
	}
	return mapError(s.queries.CreateScheduledNotifications(ctx, sqlc.CreateScheduledNotificationsParams{
		DiscussionID: first.DiscussionID,
		NotifyAt:     toTimestamptz(first.NotifyAt),
		Ids:          ids,
		UserIds:      userIDs,
	}))
}

func (s *scheduledNotificationStore) ClaimDue(ctx context.Context, claimToken string, now, staleBefore time.Time, limit int32) ([]model.DueReminder, error) {
	rows, err := s.queries.ClaimDueReminders(ctx, sqlc.ClaimDueRemindersParams{
		Now:         toTimestamptz(now),
		StaleBefore: toTimestamptz(staleBefore),
		Lim:         limit,
		ClaimToken:  &claimToken,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.DueReminder, len(rows))
	for i, row := range rows {
		result[i] = model.DueReminder{
			ID:               row.ID,
			DiscussionID:     row.DiscussionID,
			UserID:           row.UserID,
			NotifyAt:         row.NotifyAt.Time,
			DiscussionTitle:  row.Title,
			DeadlineAt:       fromNullableTimestamptz(row.DeadlineAt),
			DiscussionStatus: model.DiscussionStatus(row.Status),
		}
	}
	return result, nil
}

func (s *scheduledNotificationStore) MarkSent(ctx context.Context, ids []int64, claimToken string) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queries.MarkRemindersSent(ctx, sqlc.MarkRemindersSentParams{
		Ids:        ids,
		ClaimToken: &claimToken,
	})
}
