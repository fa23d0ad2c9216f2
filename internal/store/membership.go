package store

import (
	"context"

	"github.com/endrithotii/daskann/core/db/sqlc"
)

type membershipStore struct {
	queries *sqlc.Queries
}

func newMembershipStore(queries *sqlc.Queries) MembershipStore {
	return &membershipStore{queries: queries}
}

func (s *membershipStore) UserIDsByDepartments(ctx context.Context, departmentIDs []int64) ([]int64, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	return s.queries.ListUserIDsByDepartments(ctx, departmentIDs)
}

func (s *membershipStore) UserIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return s.queries.ListUserIDsByRoles(ctx, roleIDs)
}

func (s *membershipStore) UserName(ctx context.Context, userID int64) (string, error) {
	name, err := s.queries.GetUserName(ctx, userID)
	if err != nil {
		return "", mapError(err)
	}
	return name, nil
}
