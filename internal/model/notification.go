package model

import "time"

type NotificationKind string

const (
	NotificationKindInvitation NotificationKind = "invitation"
	NotificationKindClosure    NotificationKind = "closure"
	NotificationKindReminder   NotificationKind = "reminder"
)

// Notification is an append-only inbox message for one user about one discussion.
type Notification struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"user_id"`
	DiscussionID int64            `json:"discussion_id"`
	Kind         NotificationKind `json:"kind"`
	Message      string           `json:"message"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ScheduledNotification is a reminder that fires once at NotifyAt.
type ScheduledNotification struct {
	ID           int64     `json:"id"`
	DiscussionID int64     `json:"discussion_id"`
	UserID       int64     `json:"user_id"`
	NotifyAt     time.Time `json:"notify_at"`
	Sent         bool      `json:"sent"`
}

// DueReminder is a claimed ScheduledNotification joined with what the reminder
// message needs from its discussion.
type DueReminder struct {
	ID               int64
	DiscussionID     int64
	UserID           int64
	NotifyAt         time.Time
	DiscussionTitle  string
	DeadlineAt       *time.Time
	DiscussionStatus DiscussionStatus
}
