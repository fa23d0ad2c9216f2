package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every record logged with a context that carries them.
// Handlers and services enrich the context once; downstream calls log without
// repeating discussion or user identifiers.
type LogFields struct {
	DiscussionID            *int64
	UserID                  *int64
	ResponseID              *int64
	ScheduledNotificationID *int64
	SweepRunID              *string
	RequestID               *string
	Component               string // dotted component name, e.g. "daskann.service.lifecycle"
}

// WithLogFields merges fields into the context. Non-empty values in fields win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.DiscussionID != nil {
		result.DiscussionID = next.DiscussionID
	}
	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.ResponseID != nil {
		result.ResponseID = next.ResponseID
	}
	if next.ScheduledNotificationID != nil {
		result.ScheduledNotificationID = next.ScheduledNotificationID
	}
	if next.SweepRunID != nil {
		result.SweepRunID = next.SweepRunID
	}
	if next.RequestID != nil {
		result.RequestID = next.RequestID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to maxLen bytes and appends "..." when it was cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
