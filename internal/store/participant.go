package store

import (
	"context"

	"github.com/endrithotii/daskann/core/db/sqlc"
	"github.com/endrithotii/daskann/internal/model"
)

type participantStore struct {
	queries *sqlc.Queries
}

func newParticipantStore(queries *sqlc.Queries) ParticipantStore {
	return &participantStore{queries: queries}
}

func (s *participantStore) CreateBatch(ctx context.Context, discussionID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return mapError(s.queries.CreateParticipants(ctx, sqlc.CreateParticipantsParams{
		DiscussionID: discussionID,
		UserIds:      userIDs,
	}))
}

func (s *participantStore) List(ctx context.Context, discussionID int64) ([]model.Participant, error) {
	rows, err := s.queries.ListParticipants(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Participant, len(rows))
	for i, row := range rows {
		result[i] = *toParticipantModel(row)
	}
	return result, nil
}

func (s *participantStore) Get(ctx context.Context, discussionID, userID int64) (*model.Participant, error) {
	row, err := s.queries.GetParticipant(ctx, sqlc.GetParticipantParams{
		DiscussionID: discussionID,
		UserID:       userID,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toParticipantModel(row), nil
}

func (s *participantStore) MarkResponded(ctx context.Context, discussionID, userID int64) (bool, error) {
	n, err := s.queries.MarkParticipantResponded(ctx, sqlc.MarkParticipantRespondedParams{
		DiscussionID: discussionID,
		UserID:       userID,
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *participantStore) Tally(ctx context.Context, discussionID int64) (model.ParticipantTally, error) {
	row, err := s.queries.GetParticipantTally(ctx, discussionID)
	if err != nil {
		return model.ParticipantTally{}, err
	}
	return model.ParticipantTally{Total: row.Total, Responded: row.Responded}, nil
}

func toParticipantModel(row sqlc.DiscussionParticipant) *model.Participant {
	return &model.Participant{
		DiscussionID: row.DiscussionID,
		UserID:       row.UserID,
		InvitedAt:    row.InvitedAt.Time,
		Responded:    row.Responded,
		RespondedAt:  fromNullableTimestamptz(row.RespondedAt),
	}
}
