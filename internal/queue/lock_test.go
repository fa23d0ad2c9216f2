package queue_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/endrithotii/daskann/internal/queue"
)

var _ = Describe("Lock", func() {
	const key = "daskann:sweep:lock"

	var (
		ctx    context.Context
		mr     *miniredis.Miniredis
		client *redis.Client
		lock   *queue.Lock
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.NewMiniRedis()
		Expect(mr.Start()).To(Succeed())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		lock = queue.NewLock(client, key, time.Minute)
	})

	AfterEach(func() {
		_ = client.Close()
		mr.Close()
	})

	It("admits a single holder", func() {
		Expect(lock.TryAcquire(ctx, "run-a")).To(BeTrue())
		Expect(lock.TryAcquire(ctx, "run-b")).To(BeFalse())
		Expect(mr.TTL(key)).To(Equal(time.Minute))
	})

	It("releases only for the owning token", func() {
		Expect(lock.TryAcquire(ctx, "run-a")).To(BeTrue())

		Expect(lock.Release(ctx, "run-b")).To(Succeed())
		Expect(mr.Exists(key)).To(BeTrue())

		Expect(lock.Release(ctx, "run-a")).To(Succeed())
		Expect(mr.Exists(key)).To(BeFalse())
		Expect(lock.TryAcquire(ctx, "run-b")).To(BeTrue())
	})

	It("frees the lease once the TTL elapses", func() {
		Expect(lock.TryAcquire(ctx, "run-a")).To(BeTrue())
		mr.FastForward(2 * time.Minute)
		Expect(lock.TryAcquire(ctx, "run-b")).To(BeTrue())
	})
})
