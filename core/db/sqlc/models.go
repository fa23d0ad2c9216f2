package sqlc

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Discussion struct {
	ID                int64              `json:"id"`
	OwnerID           int64              `json:"owner_id"`
	Title             string             `json:"title"`
	Prompt            string             `json:"prompt"`
	StartDate         pgtype.Timestamptz `json:"start_date"`
	DeadlineAt        pgtype.Timestamptz `json:"deadline_at"`
	Urgency           string             `json:"urgency"`
	AllowAnonymous    bool               `json:"allow_anonymous"`
	LikesEnabled      bool               `json:"likes_enabled"`
	Status            string             `json:"status"`
	ClosedBy          *string            `json:"closed_by"`
	ResultsSummary    string             `json:"results_summary"`
	AiAnalysis        []byte             `json:"ai_analysis"`
	ClosedAt          pgtype.Timestamptz `json:"closed_at"`
	ClosureNotifiedAt pgtype.Timestamptz `json:"closure_notified_at"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
}

type DiscussionParticipant struct {
	DiscussionID int64              `json:"discussion_id"`
	UserID       int64              `json:"user_id"`
	InvitedAt    pgtype.Timestamptz `json:"invited_at"`
	Responded    bool               `json:"responded"`
	RespondedAt  pgtype.Timestamptz `json:"responded_at"`
}

type Response struct {
	ID           int64              `json:"id"`
	DiscussionID int64              `json:"discussion_id"`
	UserID       int64              `json:"user_id"`
	Text         string             `json:"text"`
	IsAnonymous  bool               `json:"is_anonymous"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Notification struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"user_id"`
	DiscussionID int64              `json:"discussion_id"`
	Kind         string             `json:"kind"`
	Message      string             `json:"message"`
	Read         bool               `json:"read"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type ScheduledNotification struct {
	ID           int64              `json:"id"`
	DiscussionID int64              `json:"discussion_id"`
	UserID       int64              `json:"user_id"`
	NotifyAt     pgtype.Timestamptz `json:"notify_at"`
	Sent         bool               `json:"sent"`
	SentAt       pgtype.Timestamptz `json:"sent_at"`
	ClaimToken   *string            `json:"claim_token"`
	ClaimedAt    pgtype.Timestamptz `json:"claimed_at"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}
