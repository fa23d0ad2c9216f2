package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/endrithotii/daskann/internal/store"
)

// AudienceCriteria selects who is asked to respond to a new discussion.
type AudienceCriteria struct {
	UserIDs        []int64
	DepartmentIDs  []int64
	RoleIDs        []int64
	IncludeCreator bool
	CreatorID      int64
}

func (c AudienceCriteria) usesGroups() bool {
	return len(c.DepartmentIDs) > 0 || len(c.RoleIDs) > 0
}

// AudienceResolver expands selection criteria into a deduplicated participant set.
type AudienceResolver interface {
	Resolve(ctx context.Context, criteria AudienceCriteria) ([]int64, error)
}

type audienceResolver struct {
	membership store.MembershipStore
}

func NewAudienceResolver(membership store.MembershipStore) AudienceResolver {
	return &audienceResolver{membership: membership}
}

// Resolve returns the union of explicit users, department members, role members
// and (optionally) the creator, sorted ascending. Without department or role
// criteria at least two participants are required.
func (r *audienceResolver) Resolve(ctx context.Context, criteria AudienceCriteria) ([]int64, error) {
	set := make(map[int64]struct{})
	add := func(ids []int64) {
		for _, id := range ids {
			if id > 0 {
				set[id] = struct{}{}
			}
		}
	}

	add(criteria.UserIDs)

	if len(criteria.DepartmentIDs) > 0 {
		members, err := r.membership.UserIDsByDepartments(ctx, criteria.DepartmentIDs)
		if err != nil {
			return nil, fmt.Errorf("resolving department members: %w", err)
		}
		add(members)
	}

	if len(criteria.RoleIDs) > 0 {
		members, err := r.membership.UserIDsByRoles(ctx, criteria.RoleIDs)
		if err != nil {
			return nil, fmt.Errorf("resolving role members: %w", err)
		}
		add(members)
	}

	if criteria.IncludeCreator && criteria.CreatorID > 0 {
		set[criteria.CreatorID] = struct{}{}
	}

	if len(set) == 0 {
		return nil, &ValidationError{Field: "participants", Reason: "no participants were selected"}
	}
	if !criteria.usesGroups() && len(set) < 2 {
		return nil, &ValidationError{Field: "participants", Reason: "at least two participants are required to reach consensus"}
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
