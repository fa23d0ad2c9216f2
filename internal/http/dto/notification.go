package dto

import (
	"time"

	"github.com/endrithotii/daskann/internal/model"
)

type NotificationResponse struct {
	ID           int64     `json:"id,string"`
	DiscussionID int64     `json:"discussion_id,string"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:           n.ID,
		DiscussionID: n.DiscussionID,
		Kind:         string(n.Kind),
		Message:      n.Message,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}

type SweepResponse struct {
	Count     int `json:"count"`
	Closed    int `json:"closed"`
	Recovered int `json:"recovered"`
}
