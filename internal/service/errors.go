package service

import (
	"errors"
	"fmt"
)

var (
	ErrDiscussionNotFound   = errors.New("discussion not found")
	ErrDiscussionClosed     = errors.New("discussion is closed")
	ErrDiscussionOpen       = errors.New("discussion is still open")
	ErrDiscussionNotStarted = errors.New("discussion has not started yet")
	ErrDeadlinePassed       = errors.New("discussion deadline has passed")
	ErrNotParticipant       = errors.New("user is not a participant of this discussion")
	ErrNotOwner             = errors.New("only the discussion owner can do this")
	ErrAlreadyResponded     = errors.New("user has already responded to this discussion")
	ErrNoResponses          = errors.New("discussion has no responses")
	ErrLikesDisabled        = errors.New("likes are disabled for this discussion")
	ErrResponseNotFound     = errors.New("response not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotConfigured        = errors.New("external service is not configured")
)

// ValidationError reports caller input that cannot be accepted. Nothing is
// persisted when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExternalServiceError wraps a failed or timed out call to the analysis or
// moderation collaborator.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// ContentRejectedError is returned when moderation does not permit a response.
type ContentRejectedError struct {
	UserMessage string
}

func (e *ContentRejectedError) Error() string {
	if e.UserMessage == "" {
		return "response was rejected by moderation"
	}
	return "response was rejected by moderation: " + e.UserMessage
}
