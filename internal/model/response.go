package model

import "time"

type Response struct {
	ID           int64     `json:"id"`
	DiscussionID int64     `json:"discussion_id"`
	UserID       int64     `json:"user_id"`
	Text         string    `json:"text"`
	IsAnonymous  bool      `json:"is_anonymous"`
	CreatedAt    time.Time `json:"created_at"`
	Likes        int64     `json:"likes"`
}
