package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/endrithotii/daskann/internal/model"
)

// defaultMaxLen caps the stream so unconsumed pushes cannot grow it without bound.
const defaultMaxLen = 100_000

// NotificationMessage is the wire form of one notification on the push stream.
// The message text is not carried; consumers load it by id.
type NotificationMessage struct {
	ID             string
	NotificationID int64
	UserID         int64
	DiscussionID   int64
	Kind           model.NotificationKind
}

// Publisher appends notifications to a Redis stream for push delivery.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewPublisher(client *redis.Client, stream string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
		logger: logger,
	}
}

// Publish adds one stream entry per notification in a single pipeline.
func (p *Publisher) Publish(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, n := range notifications {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: p.stream,
				MaxLen: p.maxLen,
				Approx: true,
				Values: map[string]any{
					"notification_id": n.ID,
					"user_id":         n.UserID,
					"discussion_id":   n.DiscussionID,
					"kind":            string(n.Kind),
				},
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish notifications: %w", err)
	}

	p.logger.DebugContext(ctx, "published notifications",
		"count", len(notifications),
		"kind", notifications[0].Kind,
		"discussion_id", notifications[0].DiscussionID,
		"stream", p.stream)
	return nil
}

// ParseMessage decodes a stream entry written by Publish.
func ParseMessage(msg redis.XMessage) (NotificationMessage, error) {
	out := NotificationMessage{ID: msg.ID}

	var err error
	if out.NotificationID, err = int64Field(msg.Values, "notification_id"); err != nil {
		return NotificationMessage{}, err
	}
	if out.UserID, err = int64Field(msg.Values, "user_id"); err != nil {
		return NotificationMessage{}, err
	}
	if out.DiscussionID, err = int64Field(msg.Values, "discussion_id"); err != nil {
		return NotificationMessage{}, err
	}

	kind, ok := msg.Values["kind"].(string)
	if !ok || kind == "" {
		return NotificationMessage{}, fmt.Errorf("missing kind in message %s", msg.ID)
	}
	out.Kind = model.NotificationKind(kind)
	return out, nil
}

func int64Field(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%s has unexpected type %T", key, raw)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
