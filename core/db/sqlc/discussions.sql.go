package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const discussionColumns = `id, owner_id, title, prompt, start_date, deadline_at, urgency, allow_anonymous, likes_enabled, status, closed_by, results_summary, ai_analysis, closed_at, closure_notified_at, created_at, updated_at`

func scanDiscussion(row pgx.Row) (Discussion, error) {
	var i Discussion
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Title,
		&i.Prompt,
		&i.StartDate,
		&i.DeadlineAt,
		&i.Urgency,
		&i.AllowAnonymous,
		&i.LikesEnabled,
		&i.Status,
		&i.ClosedBy,
		&i.ResultsSummary,
		&i.AiAnalysis,
		&i.ClosedAt,
		&i.ClosureNotifiedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createDiscussion = `-- name: CreateDiscussion :one
INSERT INTO discussions (id, owner_id, title, prompt, start_date, deadline_at, urgency, allow_anonymous, likes_enabled)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + discussionColumns

type CreateDiscussionParams struct {
	ID             int64              `json:"id"`
	OwnerID        int64              `json:"owner_id"`
	Title          string             `json:"title"`
	Prompt         string             `json:"prompt"`
	StartDate      pgtype.Timestamptz `json:"start_date"`
	DeadlineAt     pgtype.Timestamptz `json:"deadline_at"`
	Urgency        string             `json:"urgency"`
	AllowAnonymous bool               `json:"allow_anonymous"`
	LikesEnabled   bool               `json:"likes_enabled"`
}

func (q *Queries) CreateDiscussion(ctx context.Context, arg CreateDiscussionParams) (Discussion, error) {
	row := q.db.QueryRow(ctx, createDiscussion,
		arg.ID,
		arg.OwnerID,
		arg.Title,
		arg.Prompt,
		arg.StartDate,
		arg.DeadlineAt,
		arg.Urgency,
		arg.AllowAnonymous,
		arg.LikesEnabled,
	)
	return scanDiscussion(row)
}

const getDiscussion = `-- name: GetDiscussion :one
SELECT ` + discussionColumns + ` FROM discussions WHERE id = $1`

func (q *Queries) GetDiscussion(ctx context.Context, id int64) (Discussion, error) {
	row := q.db.QueryRow(ctx, getDiscussion, id)
	return scanDiscussion(row)
}

const getDiscussionForShare = `-- name: GetDiscussionForShare :one
SELECT ` + discussionColumns + ` FROM discussions WHERE id = $1 FOR SHARE`

func (q *Queries) GetDiscussionForShare(ctx context.Context, id int64) (Discussion, error) {
	row := q.db.QueryRow(ctx, getDiscussionForShare, id)
	return scanDiscussion(row)
}

const closeDiscussionIfOpen = `-- name: CloseDiscussionIfOpen :one
UPDATE discussions
SET status = 'closed', closed_by = $2, closed_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = 'open'
RETURNING ` + discussionColumns

type CloseDiscussionIfOpenParams struct {
	ID       int64   `json:"id"`
	ClosedBy *string `json:"closed_by"`
}

func (q *Queries) CloseDiscussionIfOpen(ctx context.Context, arg CloseDiscussionIfOpenParams) (Discussion, error) {
	row := q.db.QueryRow(ctx, closeDiscussionIfOpen, arg.ID, arg.ClosedBy)
	return scanDiscussion(row)
}

const setDiscussionResultsSummary = `-- name: SetDiscussionResultsSummary :exec
UPDATE discussions SET results_summary = $2, updated_at = NOW() WHERE id = $1`

type SetDiscussionResultsSummaryParams struct {
	ID             int64  `json:"id"`
	ResultsSummary string `json:"results_summary"`
}

func (q *Queries) SetDiscussionResultsSummary(ctx context.Context, arg SetDiscussionResultsSummaryParams) error {
	_, err := q.db.Exec(ctx, setDiscussionResultsSummary, arg.ID, arg.ResultsSummary)
	return err
}

const setDiscussionAnalysis = `-- name: SetDiscussionAnalysis :exec
UPDATE discussions SET ai_analysis = $2, updated_at = NOW() WHERE id = $1`

type SetDiscussionAnalysisParams struct {
	ID         int64  `json:"id"`
	AiAnalysis []byte `json:"ai_analysis"`
}

func (q *Queries) SetDiscussionAnalysis(ctx context.Context, arg SetDiscussionAnalysisParams) error {
	_, err := q.db.Exec(ctx, setDiscussionAnalysis, arg.ID, arg.AiAnalysis)
	return err
}

const setDiscussionAnalysisIfMissing = `-- name: SetDiscussionAnalysisIfMissing :execrows
UPDATE discussions SET ai_analysis = $2, updated_at = NOW() WHERE id = $1 AND ai_analysis IS NULL`

type SetDiscussionAnalysisIfMissingParams struct {
	ID         int64  `json:"id"`
	AiAnalysis []byte `json:"ai_analysis"`
}

func (q *Queries) SetDiscussionAnalysisIfMissing(ctx context.Context, arg SetDiscussionAnalysisIfMissingParams) (int64, error) {
	result, err := q.db.Exec(ctx, setDiscussionAnalysisIfMissing, arg.ID, arg.AiAnalysis)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markClosureNotified = `-- name: MarkClosureNotified :execrows
UPDATE discussions
SET closure_notified_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = 'closed' AND closure_notified_at IS NULL`

func (q *Queries) MarkClosureNotified(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, markClosureNotified, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listExpiredOpenDiscussionIDs = `-- name: ListExpiredOpenDiscussionIDs :many
SELECT id FROM discussions
WHERE status = 'open' AND deadline_at IS NOT NULL AND deadline_at < $1
ORDER BY deadline_at
LIMIT $2`

type ListExpiredOpenDiscussionIDsParams struct {
	Now pgtype.Timestamptz `json:"now"`
	Lim int32              `json:"lim"`
}

func (q *Queries) ListExpiredOpenDiscussionIDs(ctx context.Context, arg ListExpiredOpenDiscussionIDsParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, listExpiredOpenDiscussionIDs, arg.Now, arg.Lim)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

const listUnnotifiedClosedDiscussionIDs = `-- name: ListUnnotifiedClosedDiscussionIDs :many
SELECT id FROM discussions
WHERE status = 'closed' AND closure_notified_at IS NULL AND closed_at < $1
ORDER BY closed_at
LIMIT $2`

type ListUnnotifiedClosedDiscussionIDsParams struct {
	ClosedBefore pgtype.Timestamptz `json:"closed_before"`
	Lim          int32              `json:"lim"`
}

func (q *Queries) ListUnnotifiedClosedDiscussionIDs(ctx context.Context, arg ListUnnotifiedClosedDiscussionIDsParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, listUnnotifiedClosedDiscussionIDs, arg.ClosedBefore, arg.Lim)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

const listDiscussionsForUser = `-- name: ListDiscussionsForUser :many
SELECT ` + discussionColumns + ` FROM discussions
WHERE owner_id = $1
   OR id IN (SELECT discussion_id FROM discussion_participants WHERE user_id = $1)
ORDER BY created_at DESC`

func (q *Queries) ListDiscussionsForUser(ctx context.Context, userID int64) ([]Discussion, error) {
	rows, err := q.db.Query(ctx, listDiscussionsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Discussion{}
	for rows.Next() {
		i, err := scanDiscussion(rows)
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

func collectIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()
	items := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
