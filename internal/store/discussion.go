package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/endrithotii/daskann/core/db/sqlc"
	"github.com/endrithotii/daskann/internal/model"
)

type discussionStore struct {
	queries *sqlc.Queries
}

func newDiscussionStore(queries *sqlc.Queries) DiscussionStore {
	return &discussionStore{queries: queries}
}

func (s *discussionStore) Create(ctx context.Context, d *model.Discussion) error {
	row, err := s.queries.CreateDiscussion(ctx, sqlc.CreateDiscussionParams{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Title:          d.Title,
		Prompt:         d.Prompt,
		StartDate:      toTimestamptz(d.StartDate),
		DeadlineAt:     toNullableTimestamptz(d.DeadlineAt),
		Urgency:        string(d.Urgency),
		AllowAnonymous: d.AllowAnonymous,
		LikesEnabled:   d.LikesEnabled,
	})
	if err != nil {
		return mapError(err)
	}
	created, err := toDiscussionModel(row)
	if err != nil {
		return err
	}
	*d = *created
	return nil
}

func (s *discussionStore) GetByID(ctx context.Context, id int64) (*model.Discussion, error) {
	row, err := s.queries.GetDiscussion(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return toDiscussionModel(row)
}

func (s *discussionStore) GetForShare(ctx context.Context, id int64) (*model.Discussion, error) {
	row, err := s.queries.GetDiscussionForShare(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return toDiscussionModel(row)
}

func (s *discussionStore) CloseIfOpen(ctx context.Context, id int64, cause model.ClosedBy) (bool, *model.Discussion, error) {
	closedBy := string(cause)
	row, err := s.queries.CloseDiscussionIfOpen(ctx, sqlc.CloseDiscussionIfOpenParams{
		ID:       id,
		ClosedBy: &closedBy,
	})
	if err != nil {
		// No row means another caller already closed it (or it does not exist).
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil, nil
		}
		return false, nil, err
	}
	d, err := toDiscussionModel(row)
	if err != nil {
		return false, nil, err
	}
	return true, d, nil
}

func (s *discussionStore) SetResultsSummary(ctx context.Context, id int64, summary string) error {
	return s.queries.SetDiscussionResultsSummary(ctx, sqlc.SetDiscussionResultsSummaryParams{
		ID:             id,
		ResultsSummary: summary,
	})
}

func (s *discussionStore) SetAnalysis(ctx context.Context, id int64, analysis *model.ConsensusAnalysis) error {
	var payload []byte
	if analysis != nil {
		var err error
		payload, err = json.Marshal(analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
	}
	return s.queries.SetDiscussionAnalysis(ctx, sqlc.SetDiscussionAnalysisParams{
		ID:         id,
		AiAnalysis: payload,
	})
}

func (s *discussionStore) SetAnalysisIfMissing(ctx context.Context, id int64, analysis *model.ConsensusAnalysis) (bool, error) {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return false, fmt.Errorf("marshal analysis: %w", err)
	}
	n, err := s.queries.SetDiscussionAnalysisIfMissing(ctx, sqlc.SetDiscussionAnalysisIfMissingParams{
		ID:         id,
		AiAnalysis: payload,
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *discussionStore) MarkClosureNotified(ctx context.Context, id int64) (bool, error) {
	n, err := s.queries.MarkClosureNotified(ctx, id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *discussionStore) ListExpiredOpenIDs(ctx context.Context, now time.Time, limit int32) ([]int64, error) {
	return s.queries.ListExpiredOpenDiscussionIDs(ctx, sqlc.ListExpiredOpenDiscussionIDsParams{
		Now: toTimestamptz(now),
		Lim: limit,
	})
}

func (s *discussionStore) ListUnnotifiedClosedIDs(ctx context.Context, closedBefore time.Time, limit int32) ([]int64, error) {
	return s.queries.ListUnnotifiedClosedDiscussionIDs(ctx, sqlc.ListUnnotifiedClosedDiscussionIDsParams{
		ClosedBefore: toTimestamptz(closedBefore),
		Lim:          limit,
	})
}

func (s *discussionStore) ListForUser(ctx context.Context, userID int64) ([]model.Discussion, error) {
	rows, err := s.queries.ListDiscussionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Discussion, 0, len(rows))
	for _, row := range rows {
		d, err := toDiscussionModel(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, nil
}

func toDiscussionModel(row sqlc.Discussion) (*model.Discussion, error) {
	d := &model.Discussion{
		ID:                row.ID,
		OwnerID:           row.OwnerID,
		Title:             row.Title,
		Prompt:            row.Prompt,
		StartDate:         row.StartDate.Time,
		DeadlineAt:        fromNullableTimestamptz(row.DeadlineAt),
		Urgency:           model.Urgency(row.Urgency),
		AllowAnonymous:    row.AllowAnonymous,
		LikesEnabled:      row.LikesEnabled,
		Status:            model.DiscussionStatus(row.Status),
		ResultsSummary:    row.ResultsSummary,
		ClosedAt:          fromNullableTimestamptz(row.ClosedAt),
		ClosureNotifiedAt: fromNullableTimestamptz(row.ClosureNotifiedAt),
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
	if row.ClosedBy != nil {
		cause := model.ClosedBy(*row.ClosedBy)
		d.ClosedBy = &cause
	}
	if len(row.AiAnalysis) > 0 {
		var analysis model.ConsensusAnalysis
		if err := json.Unmarshal(row.AiAnalysis, &analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis for discussion %d: %w", row.ID, err)
		}
		d.Analysis = &analysis
	}
	return d, nil
}
