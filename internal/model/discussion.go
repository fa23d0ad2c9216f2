package model

import "time"

type Urgency string

type DiscussionStatus string

type ClosedBy string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

const (
	DiscussionStatusOpen   DiscussionStatus = "open"
	DiscussionStatusClosed DiscussionStatus = "closed"
)

const (
	ClosedByDeadline     ClosedBy = "deadline"
	ClosedByAllResponses ClosedBy = "all_responses"
	ClosedByManual       ClosedBy = "manual"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Discussion is a question posed to a fixed set of participants.
// Status only ever moves from open to closed; ClosedBy is nil while open.
type Discussion struct {
	ID                int64              `json:"id"`
	OwnerID           int64              `json:"owner_id"`
	Title             string             `json:"title"`
	Prompt            string             `json:"prompt"`
	StartDate         time.Time          `json:"start_date"`
	DeadlineAt        *time.Time         `json:"deadline_at,omitempty"`
	Urgency           Urgency            `json:"urgency"`
	AllowAnonymous    bool               `json:"allow_anonymous"`
	LikesEnabled      bool               `json:"likes_enabled"`
	Status            DiscussionStatus   `json:"status"`
	ClosedBy          *ClosedBy          `json:"closed_by,omitempty"`
	ResultsSummary    string             `json:"results_summary"`
	Analysis          *ConsensusAnalysis `json:"analysis,omitempty"`
	ClosedAt          *time.Time         `json:"closed_at,omitempty"`
	ClosureNotifiedAt *time.Time         `json:"closure_notified_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (d *Discussion) IsOpen() bool {
	return d.Status == DiscussionStatusOpen
}

// DeadlinePassed reports whether the deadline is strictly before now.
func (d *Discussion) DeadlinePassed(now time.Time) bool {
	return d.DeadlineAt != nil && d.DeadlineAt.Before(now)
}

func (d *Discussion) Started(now time.Time) bool {
	return !d.StartDate.After(now)
}

// Participant is a user invited to a discussion. Responded flips false to true once.
type Participant struct {
	DiscussionID int64      `json:"discussion_id"`
	UserID       int64      `json:"user_id"`
	InvitedAt    time.Time  `json:"invited_at"`
	Responded    bool       `json:"responded"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
}

// ParticipantTally counts a discussion's participants and how many have responded.
type ParticipantTally struct {
	Total     int64
	Responded int64
}

func (t ParticipantTally) AllResponded() bool {
	return t.Total > 0 && t.Responded == t.Total
}
