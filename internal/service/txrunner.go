package service

import (
	"context"

	"github.com/endrithotii/daskann/core/db"
	"github.com/endrithotii/daskann/core/db/sqlc"
	"github.com/endrithotii/daskann/internal/store"
)

// StoreProvider exposes the stores used by discussion operations. *store.Stores
// satisfies it both for pool-backed reads and inside transactions.
type StoreProvider interface {
	Discussions() store.DiscussionStore
	Participants() store.ParticipantStore
	Responses() store.ResponseStore
	Notifications() store.NotificationStore
	ScheduledNotifications() store.ScheduledNotificationStore
	Membership() store.MembershipStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}
