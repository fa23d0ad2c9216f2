package sqlc

import (
	"context"
)

const participantColumns = `discussion_id, user_id, invited_at, responded, responded_at`

const createParticipants = `-- name: CreateParticipants :exec
INSERT INTO discussion_participants (discussion_id, user_id)
SELECT $1, unnest($2::bigint[])`

type CreateParticipantsParams struct {
	DiscussionID int64   `json:"discussion_id"`
	UserIds      []int64 `json:"user_ids"`
}

func (q *Queries) CreateParticipants(ctx context.Context, arg CreateParticipantsParams) error {
	_, err := q.db.Exec(ctx, createParticipants, arg.DiscussionID, arg.UserIds)
	return err
}

const listParticipants = `-- name: ListParticipants :many
SELECT ` + participantColumns + ` FROM discussion_participants WHERE discussion_id = $1 ORDER BY user_id`

func (q *Queries) ListParticipants(ctx context.Context, discussionID int64) ([]DiscussionParticipant, error) {
	rows, err := q.db.Query(ctx, listParticipants, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DiscussionParticipant{}
	for rows.Next() {
		var i DiscussionParticipant
		if err := rows.Scan(
			&i.DiscussionID,
			&i.UserID,
			&i.InvitedAt,
			&i.Responded,
			&i.RespondedAt,
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

const getParticipant = `-- name: GetParticipant :one
SELECT ` + participantColumns + ` FROM discussion_participants WHERE discussion_id = $1 AND user_id = $2`

type GetParticipantParams struct {
	DiscussionID int64 `json:"discussion_id"`
	UserID       int64 `json:"user_id"`
}

func (q *Queries) GetParticipant(ctx context.Context, arg GetParticipantParams) (DiscussionParticipant, error) {
	row := q.db.QueryRow(ctx, getParticipant, arg.DiscussionID, arg.UserID)
	var i DiscussionParticipant
	err := row.Scan(
		&i.DiscussionID,
		&i.UserID,
		&i.InvitedAt,
		&i.Responded,
		&i.RespondedAt,
	)
	return i, err
}

const markParticipantResponded = `-- name: MarkParticipantResponded :execrows
UPDATE discussion_participants
SET responded = TRUE, responded_at = NOW()
WHERE discussion_id = $1 AND user_id = $2 AND responded = FALSE`

type MarkParticipantRespondedParams struct {
	DiscussionID int64 `json:"discussion_id"`
	UserID       int64 `json:"user_id"`
}

func (q *Queries) MarkParticipantResponded(ctx context.Context, arg MarkParticipantRespondedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markParticipantResponded, arg.DiscussionID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getParticipantTally = `-- name: GetParticipantTally :one
SELECT COUNT(*)::bigint AS total,
       (COUNT(*) FILTER (WHERE responded))::bigint AS responded
FROM discussion_participants
WHERE discussion_id = $1`

type GetParticipantTallyRow struct {
	Total     int64 `json:"total"`
	Responded int64 `json:"responded"`
}

func (q *Queries) GetParticipantTally(ctx context.Context, discussionID int64) (GetParticipantTallyRow, error) {
	row := q.db.QueryRow(ctx, getParticipantTally, discussionID)
	var i GetParticipantTallyRow
	err := row.Scan(&i.Total, &i.Responded)
	return i, err
}
