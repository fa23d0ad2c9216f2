package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createScheduledNotifications = `-- name: CreateScheduledNotifications :exec
INSERT INTO scheduled_notifications (id, discussion_id, user_id, notify_at)
SELECT u.id, $1, u.user_id, $2
FROM unnest($3::bigint[], $4::bigint[]) AS u(id, user_id)`

type CreateScheduledNotificationsParams struct {
	DiscussionID int64              `json:"discussion_id"`
	NotifyAt     pgtype.Timestamptz `json:"notify_at"`
	Ids          []int64            `json:"ids"`
	UserIds      []int64            `json:"user_ids"`
}

func (q *Queries) CreateScheduledNotifications(ctx context.Context, arg CreateScheduledNotificationsParams) error {
	_, err := q.db.Exec(ctx, createScheduledNotifications,
		arg.DiscussionID,
		arg.NotifyAt,
		arg.Ids,
		arg.UserIds,
	)
	return err
}

const claimDueReminders = `-- name: ClaimDueReminders :many
WITH due AS (
    SELECT sn.id
    FROM scheduled_notifications sn
    WHERE sn.sent = FALSE
      AND sn.notify_at <= $1
      AND (sn.claimed_at IS NULL OR sn.claimed_at < $2)
    ORDER BY sn.notify_at
    LIMIT $3
    FOR UPDATE SKIP LOCKED
)
UPDATE scheduled_notifications s
SET claim_token = $4, claimed_at = $1
FROM due, discussions d
WHERE s.id = due.id AND d.id = s.discussion_id
RETURNING s.id, s.discussion_id, s.user_id, s.notify_at, d.title, d.deadline_at, d.status`

type ClaimDueRemindersParams struct {
	Now         pgtype.Timestamptz `json:"now"`
	StaleBefore pgtype.Timestamptz `json:"stale_before"`
	Lim         int32              `json:"lim"`
	ClaimToken  *string            `json:"claim_token"`
}

type ClaimDueRemindersRow struct {
	ID           int64              `json:"id"`
	DiscussionID int64              `json:"discussion_id"`
	UserID       int64              `json:"user_id"`
	NotifyAt     pgtype.Timestamptz `json:"notify_at"`
	Title        string             `json:"title"`
	DeadlineAt   pgtype.Timestamptz `json:"deadline_at"`
	Status       string             `json:"status"`
}

func (q *Queries) ClaimDueReminders(ctx context.Context, arg ClaimDueRemindersParams) ([]ClaimDueRemindersRow, error) {
	rows, err := q.db.Query(ctx, claimDueReminders,
		arg.Now,
		arg.StaleBefore,
		arg.Lim,
		arg.ClaimToken,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ClaimDueRemindersRow{}
	for rows.Next() {
		var i ClaimDueRemindersRow
		if err := rows.Scan(
			&i.ID,
			&i.DiscussionID,
			&i.UserID,
			&i.NotifyAt,
			&i.Title,
			&i.DeadlineAt,
			&i.Status,
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

const markRemindersSent = `-- name: MarkRemindersSent :many
UPDATE scheduled_notifications
SET sent = TRUE, sent_at = NOW()
WHERE id = ANY($1::bigint[]) AND claim_token = $2 AND sent = FALSE
RETURNING id`

type MarkRemindersSentParams struct {
	Ids        []int64 `json:"ids"`
	ClaimToken *string `json:"claim_token"`
}

func (q *Queries) MarkRemindersSent(ctx context.Context, arg MarkRemindersSentParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, markRemindersSent, arg.Ids, arg.ClaimToken)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}
