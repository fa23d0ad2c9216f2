package dto

import (
	"time"

	"github.com/endrithotii/daskann/internal/model"
)

type CreateDiscussionRequest struct {
	Title               string     `json:"title" binding:"required,max=200"`
	Prompt              string     `json:"prompt" binding:"required,max=5000"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	DeadlineAt          *time.Time `json:"deadline_at,omitempty"`
	Urgency             string     `json:"urgency,omitempty" binding:"omitempty,oneof=low medium high"`
	AllowAnonymous      bool       `json:"allow_anonymous"`
	LikesEnabled        bool       `json:"likes_enabled"`
	UserIDs             []int64    `json:"user_ids,omitempty"`
	DepartmentIDs       []int64    `json:"department_ids,omitempty"`
	RoleIDs             []int64    `json:"role_ids,omitempty"`
	IncludeCreator      bool       `json:"include_creator"`
	ReminderLeadMinutes int        `json:"reminder_lead_minutes" binding:"min=0"`
}

type SubmitResponseRequest struct {
	Text        string `json:"text" binding:"required,max=5000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type DiscussionResponse struct {
	ID                int64                    `json:"id,string"`
	OwnerID           int64                    `json:"owner_id,string"`
	Title             string                   `json:"title"`
	Prompt            string                   `json:"prompt"`
	StartDate         time.Time                `json:"start_date"`
	DeadlineAt        *time.Time               `json:"deadline_at,omitempty"`
	Urgency           string                   `json:"urgency"`
	AllowAnonymous    bool                     `json:"allow_anonymous"`
	LikesEnabled      bool                     `json:"likes_enabled"`
	Status            string                   `json:"status"`
	ClosedBy          *string                  `json:"closed_by,omitempty"`
	ClosedAt          *time.Time               `json:"closed_at,omitempty"`
	ResultsSummary    string                   `json:"results_summary,omitempty"`
	Analysis          *model.ConsensusAnalysis `json:"ai_analysis,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	Participants      []ParticipantResponse    `json:"participants,omitempty"`
	ParticipantsCount *int                     `json:"participants_count,omitempty"`
}

type ParticipantResponse struct {
	UserID      int64      `json:"user_id,string"`
	InvitedAt   time.Time  `json:"invited_at"`
	Responded   bool       `json:"responded"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func ToDiscussionResponse(d *model.Discussion, participants []model.Participant) DiscussionResponse {
	resp := DiscussionResponse{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Title:          d.Title,
		Prompt:         d.Prompt,
		StartDate:      d.StartDate,
		DeadlineAt:     d.DeadlineAt,
		Urgency:        string(d.Urgency),
		AllowAnonymous: d.AllowAnonymous,
		LikesEnabled:   d.LikesEnabled,
		Status:         string(d.Status),
		ClosedAt:       d.ClosedAt,
		ResultsSummary: d.ResultsSummary,
		Analysis:       d.Analysis,
		CreatedAt:      d.CreatedAt,
	}
	if d.ClosedBy != nil {
		closedBy := string(*d.ClosedBy)
		resp.ClosedBy = &closedBy
	}
	if participants != nil {
		resp.Participants = make([]ParticipantResponse, len(participants))
		for i, p := range participants {
			resp.Participants[i] = ParticipantResponse{
				UserID:      p.UserID,
				InvitedAt:   p.InvitedAt,
				Responded:   p.Responded,
				RespondedAt: p.RespondedAt,
			}
		}
		count := len(participants)
		resp.ParticipantsCount = &count
	}
	return resp
}

// ResponseResponse omits user_id when the author is hidden.
type ResponseResponse struct {
	ID           int64     `json:"id,string"`
	DiscussionID int64     `json:"discussion_id,string"`
	UserID       int64     `json:"user_id,string,omitempty"`
	Text         string    `json:"text"`
	IsAnonymous  bool      `json:"is_anonymous"`
	Likes        int64     `json:"likes"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToResponseResponse(r model.Response) ResponseResponse {
	return ResponseResponse{
		ID:           r.ID,
		DiscussionID: r.DiscussionID,
		UserID:       r.UserID,
		Text:         r.Text,
		IsAnonymous:  r.IsAnonymous,
		Likes:        r.Likes,
		CreatedAt:    r.CreatedAt,
	}
}

type SubmitResponseResponse struct {
	Response         ResponseResponse `json:"response"`
	DiscussionClosed bool             `json:"discussion_closed"`
}
