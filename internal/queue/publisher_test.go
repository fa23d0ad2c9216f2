package queue_test

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/queue"
)

const stream = "daskann_notifications"

var _ = Describe("Publisher", func() {
	var (
		ctx       context.Context
		mr        *miniredis.Miniredis
		client    *redis.Client
		publisher *queue.Publisher
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.NewMiniRedis()
		Expect(mr.Start()).To(Succeed())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		publisher = queue.NewPublisher(client, stream, nil)
	})

	AfterEach(func() {
		_ = client.Close()
		mr.Close()
	})

	It("adds one stream entry per notification", func() {
		batch := []model.Notification{
			{ID: 11, UserID: 2, DiscussionID: 100, Kind: model.NotificationKindClosure, Message: "closed"},
			{ID: 12, UserID: 3, DiscussionID: 100, Kind: model.NotificationKindClosure, Message: "closed"},
		}

		Expect(publisher.Publish(ctx, batch)).To(Succeed())

		entries, err := client.XRange(ctx, stream, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		first, err := queue.ParseMessage(entries[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(first.NotificationID).To(Equal(int64(11)))
		Expect(first.UserID).To(Equal(int64(2)))
		Expect(first.DiscussionID).To(Equal(int64(100)))
		Expect(first.Kind).To(Equal(model.NotificationKindClosure))
		Expect(entries[0].Values).NotTo(HaveKey("message"))
	})

	It("does nothing for an empty batch", func() {
		Expect(publisher.Publish(ctx, nil)).To(Succeed())
		Expect(mr.Exists(stream)).To(BeFalse())
	})

	It("reports an unreachable Redis", func() {
		mr.Close()
		err := publisher.Publish(ctx, []model.Notification{{ID: 1, UserID: 2, DiscussionID: 3, Kind: model.NotificationKindReminder}})
		Expect(err).To(MatchError(ContainSubstring("publish notifications")))
	})
})

var _ = Describe("ParseMessage", func() {
	It("rejects entries with missing fields", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"user_id": "2"}})
		Expect(err).To(MatchError(ContainSubstring("notification_id")))
	})

	It("rejects non-numeric ids", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{
			"notification_id": "x", "user_id": "2", "discussion_id": "3", "kind": "reminder",
		}})
		Expect(err).To(HaveOccurred())
	})
})
