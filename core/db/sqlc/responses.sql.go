package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const responseColumns = `id, discussion_id, user_id, text, is_anonymous, created_at`

func scanResponse(row pgx.Row) (Response, error) {
	var i Response
	err := row.Scan(
		&i.ID,
		&i.DiscussionID,
		&i.UserID,
		&i.Text,
		&i.IsAnonymous,
		&i.CreatedAt,
	)
	return i, err
}

const createResponse = `-- name: CreateResponse :one
INSERT INTO responses (id, discussion_id, user_id, text, is_anonymous)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + responseColumns

type CreateResponseParams struct {
	ID           int64  `json:"id"`
	DiscussionID int64  `json:"discussion_id"`
	UserID       int64  `json:"user_id"`
	Text         string `json:"text"`
	IsAnonymous  bool   `json:"is_anonymous"`
}

func (q *Queries) CreateResponse(ctx context.Context, arg CreateResponseParams) (Response, error) {
	row := q.db.QueryRow(ctx, createResponse,
		arg.ID,
		arg.DiscussionID,
		arg.UserID,
		arg.Text,
		arg.IsAnonymous,
	)
	return scanResponse(row)
}

const getResponse = `-- name: GetResponse :one
SELECT ` + responseColumns + ` FROM responses WHERE id = $1`

func (q *Queries) GetResponse(ctx context.Context, id int64) (Response, error) {
	row := q.db.QueryRow(ctx, getResponse, id)
	return scanResponse(row)
}

const listResponsesByDiscussion = `-- name: ListResponsesByDiscussion :many
SELECT ` + responseColumns + ` FROM responses WHERE discussion_id = $1 ORDER BY created_at, id`

func (q *Queries) ListResponsesByDiscussion(ctx context.Context, discussionID int64) ([]Response, error) {
	rows, err := q.db.Query(ctx, listResponsesByDiscussion, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Response{}
	for rows.Next() {
		i, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countResponsesByDiscussion = `-- name: CountResponsesByDiscussion :one
SELECT COUNT(*)::bigint FROM responses WHERE discussion_id = $1`

func (q *Queries) CountResponsesByDiscussion(ctx context.Context, discussionID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countResponsesByDiscussion, discussionID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createResponseLike = `-- name: CreateResponseLike :execrows
INSERT INTO response_likes (response_id, user_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`

type CreateResponseLikeParams struct {
	ResponseID int64 `json:"response_id"`
	UserID     int64 `json:"user_id"`
}

func (q *Queries) CreateResponseLike(ctx context.Context, arg CreateResponseLikeParams) (int64, error) {
	result, err := q.db.Exec(ctx, createResponseLike, arg.ResponseID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countLikesByDiscussion = `-- name: CountLikesByDiscussion :many
SELECT l.response_id, COUNT(*)::bigint AS likes
FROM response_likes l
JOIN responses r ON r.id = l.response_id
WHERE r.discussion_id = $1
GROUP BY l.response_id`

type CountLikesByDiscussionRow struct {
	ResponseID int64 `json:"response_id"`
	Likes      int64 `json:"likes"`
}

func (q *Queries) CountLikesByDiscussion(ctx context.Context, discussionID int64) ([]CountLikesByDiscussionRow, error) {
	rows, err := q.db.Query(ctx, countLikesByDiscussion, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CountLikesByDiscussionRow{}
	for rows.Next() {
		var i CountLikesByDiscussionRow
		if err := rows.Scan(&i.ResponseID, &i.Likes); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
