package store

import (
	"context"

	"github.com/endrithotii/daskann/core/db/sqlc"
	"github.com/endrithotii/daskann/internal/model"
)

type responseStore struct {
	queries *sqlc.Queries
}

func newResponseStore(queries *sqlc.Queries) ResponseStore {
	return &responseStore{queries: queries}
}

func (s *responseStore) Create(ctx context.Context, r *model.Response) error {
	row, err := s.queries.CreateResponse(ctx, sqlc.CreateResponseParams{
		ID:           r.ID,
		DiscussionID: r.DiscussionID,
		UserID:       r.UserID,
		Text:         r.Text,
		IsAnonymous:  r.IsAnonymous,
	})
	if err != nil {
		return mapError(err)
	}
	*r = toResponseModel(row)
	return nil
}

func (s *responseStore) GetByID(ctx context.Context, id int64) (*model.Response, error) {
	row, err := s.queries.GetResponse(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	r := toResponseModel(row)
	return &r, nil
}

func (s *responseStore) ListByDiscussion(ctx context.Context, discussionID int64) ([]model.Response, error) {
	rows, err := s.queries.ListResponsesByDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	likes, err := s.queries.CountLikesByDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	likesByResponse := make(map[int64]int64, len(likes))
	for _, l := range likes {
		likesByResponse[l.ResponseID] = l.Likes
	}

	result := make([]model.Response, len(rows))
	for i, row := range rows {
		result[i] = toResponseModel(row)
		result[i].Likes = likesByResponse[row.ID]
	}
	return result, nil
}

func (s *responseStore) Count(ctx context.Context, discussionID int64) (int64, error) {
	return s.queries.CountResponsesByDiscussion(ctx, discussionID)
}

func (s *responseStore) Like(ctx context.Context, responseID, userID int64) (bool, error) {
	n, err := s.queries.CreateResponseLike(ctx, sqlc.CreateResponseLikeParams{
		ResponseID: responseID,
		UserID:     userID,
	})
	if err != nil {
		return false, mapError(err)
	}
	return n == 1, nil
}

func toResponseModel(row sqlc.Response) model.Response {
	return model.Response{
		ID:           row.ID,
		DiscussionID: row.DiscussionID,
		UserID:       row.UserID,
		Text:         row.Text,
		IsAnonymous:  row.IsAnonymous,
		CreatedAt:    row.CreatedAt.Time,
	}
}
