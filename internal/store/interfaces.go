package store

import (
	"context"
	"errors"
	"time"

	"github.com/endrithotii/daskann/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
var ErrDuplicate = errors.New("duplicate")

// DiscussionStore defines the contract for discussion data access
type DiscussionStore interface {
	Create(ctx context.Context, d *model.Discussion) error
	GetByID(ctx context.Context, id int64) (*model.Discussion, error)
	// GetForShare reads the discussion and, inside a transaction, holds a share
	// lock on its row until commit so a concurrent close waits for the caller.
	GetForShare(ctx context.Context, id int64) (*model.Discussion, error)
	// CloseIfOpen performs the open->closed transition. Returns closed=false with
	// no error when the discussion was already closed.
	CloseIfOpen(ctx context.Context, id int64, cause model.ClosedBy) (closed bool, d *model.Discussion, err error)
	SetResultsSummary(ctx context.Context, id int64, summary string) error
	SetAnalysis(ctx context.Context, id int64, analysis *model.ConsensusAnalysis) error
	// SetAnalysisIfMissing stores the analysis only when none is stored yet.
	SetAnalysisIfMissing(ctx context.Context, id int64, analysis *model.ConsensusAnalysis) (bool, error)
	// MarkClosureNotified records the closure batch. Returns false when it was already recorded.
	MarkClosureNotified(ctx context.Context, id int64) (bool, error)
	ListExpiredOpenIDs(ctx context.Context, now time.Time, limit int32) ([]int64, error)
	ListUnnotifiedClosedIDs(ctx context.Context, closedBefore time.Time, limit int32) ([]int64, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Discussion, error)
}

// ParticipantStore defines the contract for participant data access
type ParticipantStore interface {
	CreateBatch(ctx context.Context, discussionID int64, userIDs []int64) error
	List(ctx context.Context, discussionID int64) ([]model.Participant, error)
	Get(ctx context.Context, discussionID, userID int64) (*model.Participant, error)
	// MarkResponded flips responded to true. Returns false if it already was.
	MarkResponded(ctx context.Context, discussionID, userID int64) (bool, error)
	Tally(ctx context.Context, discussionID int64) (model.ParticipantTally, error)
}

// ResponseStore defines the contract for response data access
type ResponseStore interface {
	// Create returns ErrDuplicate when the user already responded to the discussion.
	Create(ctx context.Context, r *model.Response) error
	GetByID(ctx context.Context, id int64) (*model.Response, error)
	// ListByDiscussion returns responses in submission order with like counts.
	ListByDiscussion(ctx context.Context, discussionID int64) ([]model.Response, error)
	Count(ctx context.Context, discussionID int64) (int64, error)
	// Like is idempotent per (response, user). Returns false when the like already existed.
	Like(ctx context.Context, responseID, userID int64) (bool, error)
}

// NotificationStore defines the contract for inbox notification data access
type NotificationStore interface {
	CreateBatch(ctx context.Context, notifications []model.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int32) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// ScheduledNotificationStore defines the contract for reminder data access
type ScheduledNotificationStore interface {
	// CreateBatch stores reminders that share one discussion and notify_at.
	CreateBatch(ctx context.Context, reminders []model.ScheduledNotification) error
	// ClaimDue stamps up to limit unsent, due reminders with claimToken. Rows
	// claimed before staleBefore are considered abandoned and can be reclaimed.
	ClaimDue(ctx context.Context, claimToken string, now, staleBefore time.Time, limit int32) ([]model.DueReminder, error)
	// MarkSent marks the rows still holding claimToken as sent and returns their ids.
	MarkSent(ctx context.Context, ids []int64, claimToken string) ([]int64, error)
}

// MembershipStore reads department and role membership owned by the admin side.
type MembershipStore interface {
	UserIDsByDepartments(ctx context.Context, departmentIDs []int64) ([]int64, error)
	UserIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error)
	UserName(ctx context.Context, userID int64) (string, error)
}
