package sqlc

import (
	"context"
)

const createNotifications = `-- name: CreateNotifications :execrows
INSERT INTO notifications (id, user_id, discussion_id, kind, message)
SELECT * FROM unnest(
    $1::bigint[],
    $2::bigint[],
    $3::bigint[],
    $4::text[],
    $5::text[]
)`

type CreateNotificationsParams struct {
	Ids           []int64  `json:"ids"`
	UserIds       []int64  `json:"user_ids"`
	DiscussionIds []int64  `json:"discussion_ids"`
	Kinds         []string `json:"kinds"`
	Messages      []string `json:"messages"`
}

func (q *Queries) CreateNotifications(ctx context.Context, arg CreateNotificationsParams) (int64, error) {
	result, err := q.db.Exec(ctx, createNotifications,
		arg.Ids,
		arg.UserIds,
		arg.DiscussionIds,
		arg.Kinds,
		arg.Messages,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listNotificationsByUser = `-- name: ListNotificationsByUser :many
SELECT id, user_id, discussion_id, kind, message, read, created_at FROM notifications
WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

type ListNotificationsByUserParams struct {
	UserID int64 `json:"user_id"`
	Limit  int32 `json:"limit"`
}

func (q *Queries) ListNotificationsByUser(ctx context.Context, arg ListNotificationsByUserParams) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotificationsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Notification{}
	for rows.Next() {
		var i Notification
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.DiscussionID,
			&i.Kind,
			&i.Message,
			&i.Read,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markNotificationRead = `-- name: MarkNotificationRead :execrows
UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`

type MarkNotificationReadParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (int64, error) {
	result, err := q.db.Exec(ctx, markNotificationRead, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markAllNotificationsRead = `-- name: MarkAllNotificationsRead :execrows
UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.Exec(ctx, markAllNotificationsRead, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
