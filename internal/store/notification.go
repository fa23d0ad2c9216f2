package store

import (
	"context"

	"github.com/endrithotii/daskann/core/db/sqlc"
	"github.com/endrithotii/daskann/internal/model"
)

type notificationStore struct {
	queries *sqlc.Queries
}

func newNotificationStore(queries *sqlc.Queries) NotificationStore {
	return &notificationStore{queries: queries}
}

func (s *notificationStore) CreateBatch(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	params := sqlc.CreateNotificationsParams{
		Ids:           make([]int64, len(notifications)),
		UserIds:       make([]int64, len(notifications)),
		DiscussionIds: make([]int64, len(notifications)),
		Kinds:         make([]string, len(notifications)),
		Messages:      make([]string, len(notifications)),
	}
	for i, n := range notifications {
		params.Ids[i] = n.ID
		params.UserIds[i] = n.UserID
		params.DiscussionIds[i] = n.DiscussionID
		params.Kinds[i] = string(n.Kind)
		params.Messages[i] = n.Message
	}
	_, err := s.queries.CreateNotifications(ctx, params)
	return mapError(err)
}

func (s *notificationStore) ListByUser(ctx context.Context, userID int64, limit int32) ([]model.Notification, error) {
	rows, err := s.queries.ListNotificationsByUser(ctx, sqlc.ListNotificationsByUserParams{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.Notification, len(rows))
	for i, row := range rows {
		result[i] = model.Notification{
			ID:           row.ID,
			UserID:       row.UserID,
			DiscussionID: row.DiscussionID,
			Kind:         model.NotificationKind(row.Kind),
			Message:      row.Message,
			Read:         row.Read,
			CreatedAt:    row.CreatedAt.Time,
		}
	}
	return result, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	n, err := s.queries.MarkNotificationRead(ctx, sqlc.MarkNotificationReadParams{ID: id, UserID: userID})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.queries.MarkAllNotificationsRead(ctx, userID)
}
