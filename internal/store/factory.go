package store

import (
	"github.com/endrithotii/daskann/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Discussions() DiscussionStore {
	return newDiscussionStore(s.queries)
}

func (s *Stores) Participants() ParticipantStore {
	return newParticipantStore(s.queries)
}

func (s *Stores) Responses() ResponseStore {
	return newResponseStore(s.queries)
}

func (s *Stores) Notifications() NotificationStore {
	return newNotificationStore(s.queries)
}

func (s *Stores) ScheduledNotifications() ScheduledNotificationStore {
	return newScheduledNotificationStore(s.queries)
}

func (s *Stores) Membership() MembershipStore {
	return newMembershipStore(s.queries)
}
