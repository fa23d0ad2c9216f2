package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/common/logger"
	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/store"
)

const (
	maxTitleLength  = 200
	maxPromptLength = 5000
	maxAnswerLength = 5000
	unknownInviter  = "Someone"
)

type CreateDiscussionInput struct {
	OwnerID          int64
	Title            string
	Prompt           string
	StartDate        *time.Time
	DeadlineAt       *time.Time
	Urgency          model.Urgency
	AllowAnonymous   bool
	LikesEnabled     bool
	UserIDs          []int64
	DepartmentIDs    []int64
	RoleIDs          []int64
	IncludeCreator   bool
	ReminderLeadTime time.Duration // zero means no reminder
}

type SubmitResponseInput struct {
	DiscussionID int64
	UserID       int64
	Text         string
	IsAnonymous  bool
}

type SubmitResponseResult struct {
	Response *model.Response
	// Closed is true when this submission closed the discussion.
	Closed bool
}

// DiscussionView is a discussion together with its participants.
type DiscussionView struct {
	Discussion   *model.Discussion
	Participants []model.Participant
}

type DiscussionService interface {
	Create(ctx context.Context, in CreateDiscussionInput) (*DiscussionView, error)
	// Get evaluates closure before returning, so a discussion whose deadline
	// passed is reported closed on the first view.
	Get(ctx context.Context, userID, discussionID int64) (*DiscussionView, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Discussion, error)
	SubmitResponse(ctx context.Context, in SubmitResponseInput) (*SubmitResponseResult, error)
	// ListResponses hides the author of anonymous responses from everyone but the author.
	ListResponses(ctx context.Context, userID, discussionID int64) ([]model.Response, error)
	LikeResponse(ctx context.Context, userID, discussionID, responseID int64) error
	Close(ctx context.Context, userID, discussionID int64) (*model.Discussion, error)
}

type discussionService struct {
	stores     StoreProvider
	txRunner   TxRunner
	audience   AudienceResolver
	lifecycle  LifecycleEngine
	moderation *ModerationGate
	publisher  NotificationPublisher
	now        func() time.Time
}

func NewDiscussionService(
	stores StoreProvider,
	txRunner TxRunner,
	audience AudienceResolver,
	lifecycle LifecycleEngine,
	moderation *ModerationGate,
	publisher NotificationPublisher,
) DiscussionService {
	return &discussionService{
		stores:     stores,
		txRunner:   txRunner,
		audience:   audience,
		lifecycle:  lifecycle,
		moderation: moderation,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (s *discussionService) Create(ctx context.Context, in CreateDiscussionInput) (*DiscussionView, error) {
	now := s.now()

	d, err := s.validateCreate(in, now)
	if err != nil {
		return nil, err
	}

	participantIDs, err := s.audience.Resolve(ctx, AudienceCriteria{
		UserIDs:        in.UserIDs,
		DepartmentIDs:  in.DepartmentIDs,
		RoleIDs:        in.RoleIDs,
		IncludeCreator: in.IncludeCreator,
		CreatorID:      in.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	inviter, err := s.stores.Membership().UserName(ctx, in.OwnerID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("looking up inviter: %w", err)
		}
		inviter = unknownInviter
	}

	var reminders []model.ScheduledNotification
	if in.ReminderLeadTime > 0 && d.DeadlineAt != nil {
		notifyAt := d.DeadlineAt.Add(-in.ReminderLeadTime)
		reminders = make([]model.ScheduledNotification, len(participantIDs))
		for i, userID := range participantIDs {
			reminders[i] = model.ScheduledNotification{
				ID:           id.New(),
				DiscussionID: d.ID,
				UserID:       userID,
				NotifyAt:     notifyAt,
			}
		}
	}

	invitations := newNotificationBatch(model.NotificationKindInvitation, d.ID, participantIDs,
		InvitationMessage(inviter, d.Title, d.DeadlineAt, d.Urgency, now))

	var participants []model.Participant
	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Discussions().Create(ctx, d); err != nil {
			return fmt.Errorf("creating discussion: %w", err)
		}
		if err := stores.Participants().CreateBatch(ctx, d.ID, participantIDs); err != nil {
			return fmt.Errorf("creating participants: %w", err)
		}
		if err := stores.Notifications().CreateBatch(ctx, invitations); err != nil {
			return fmt.Errorf("recording invitations: %w", err)
		}
		if err := stores.ScheduledNotifications().CreateBatch(ctx, reminders); err != nil {
			return fmt.Errorf("scheduling reminders: %w", err)
		}
		var err error
		participants, err = stores.Participants().List(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "discussion created",
		"discussion_id", d.ID,
		"participants", len(participantIDs),
		"reminders", len(reminders),
		"deadline_at", d.DeadlineAt)

	publish(ctx, s.publisher, invitations)

	return &DiscussionView{Discussion: d, Participants: participants}, nil
}

func (s *discussionService) validateCreate(in CreateDiscussionInput, now time.Time) (*model.Discussion, error) {
	title := strings.TrimSpace(in.Title)
	prompt := strings.TrimSpace(in.Prompt)

	switch {
	case title == "":
		return nil, &ValidationError{Field: "title", Reason: "title is required"}
	case len(title) > maxTitleLength:
		return nil, &ValidationError{Field: "title", Reason: fmt.Sprintf("title must be at most %d characters", maxTitleLength)}
	case prompt == "":
		return nil, &ValidationError{Field: "prompt", Reason: "prompt is required"}
	case len(prompt) > maxPromptLength:
		return nil, &ValidationError{Field: "prompt", Reason: fmt.Sprintf("prompt must be at most %d characters", maxPromptLength)}
	case in.ReminderLeadTime < 0:
		return nil, &ValidationError{Field: "reminder_lead_minutes", Reason: "reminder lead time cannot be negative"}
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = model.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, &ValidationError{Field: "urgency", Reason: "urgency must be low, medium or high"}
	}

	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.DeadlineAt != nil {
		if !in.DeadlineAt.After(now) {
			return nil, &ValidationError{Field: "deadline_at", Reason: "deadline must be in the future"}
		}
		if !in.DeadlineAt.After(start) {
			return nil, &ValidationError{Field: "deadline_at", Reason: "deadline must be after the start date"}
		}
	}

	return &model.Discussion{
		ID:             id.New(),
		OwnerID:        in.OwnerID,
		Title:          title,
		Prompt:         prompt,
		StartDate:      start,
		DeadlineAt:     in.DeadlineAt,
		Urgency:        urgency,
		AllowAnonymous: in.AllowAnonymous,
		LikesEnabled:   in.LikesEnabled,
		Status:         model.DiscussionStatusOpen,
	}, nil
}

func (s *discussionService) Get(ctx context.Context, userID, discussionID int64) (*DiscussionView, error) {
	d, err := getDiscussion(ctx, s.stores, discussionID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.stores, d, userID); err != nil {
		return nil, err
	}

	if d.IsOpen() {
		closed, err := s.lifecycle.Evaluate(ctx, discussionID)
		if err != nil {
			slog.WarnContext(ctx, "closure evaluation on view failed", "error", err)
		}
		if closed {
			if d, err = getDiscussion(ctx, s.stores, discussionID); err != nil {
				return nil, err
			}
		}
	}

	participants, err := s.stores.Participants().List(ctx, discussionID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return &DiscussionView{Discussion: d, Participants: participants}, nil
}

func (s *discussionService) ListForUser(ctx context.Context, userID int64) ([]model.Discussion, error) {
	discussions, err := s.stores.Discussions().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing discussions: %w", err)
	}

	anyClosed := false
	now := s.now()
	for _, d := range discussions {
		if !d.IsOpen() || !d.DeadlinePassed(now) {
			continue
		}
		closed, err := s.lifecycle.Evaluate(ctx, d.ID)
		if err != nil {
			slog.WarnContext(ctx, "closure evaluation on list failed", "discussion_id", d.ID, "error", err)
			continue
		}
		anyClosed = anyClosed || closed
	}

	if anyClosed {
		if discussions, err = s.stores.Discussions().ListForUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("listing discussions: %w", err)
		}
	}
	return discussions, nil
}

func (s *discussionService) SubmitResponse(ctx context.Context, in SubmitResponseInput) (*SubmitResponseResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DiscussionID: logger.Ptr(in.DiscussionID),
		UserID:       logger.Ptr(in.UserID),
	})

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Reason: "response text is required"}
	}
	if len(text) > maxAnswerLength {
		return nil, &ValidationError{Field: "text", Reason: fmt.Sprintf("response must be at most %d characters", maxAnswerLength)}
	}

	d, err := getDiscussion(ctx, s.stores, in.DiscussionID)
	if err != nil {
		return nil, err
	}
	if !d.IsOpen() {
		return nil, ErrDiscussionClosed
	}
	now := s.now()
	if !d.Started(now) {
		return nil, ErrDiscussionNotStarted
	}
	if d.DeadlinePassed(now) {
		return nil, s.rejectLate(ctx, d.ID)
	}

	participant, err := s.stores.Participants().Get(ctx, in.DiscussionID, in.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("getting participant: %w", err)
	}
	if participant.Responded {
		return nil, ErrAlreadyResponded
	}
	if in.IsAnonymous && !d.AllowAnonymous {
		return nil, &ValidationError{Field: "is_anonymous", Reason: "this discussion does not allow anonymous responses"}
	}

	// Moderation runs before anything is persisted.
	if err := s.moderation.Check(ctx, d.Prompt, text); err != nil {
		return nil, err
	}

	resp := &model.Response{
		ID:           id.New(),
		DiscussionID: in.DiscussionID,
		UserID:       in.UserID,
		Text:         text,
		IsAnonymous:  in.IsAnonymous,
	}
	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		// The share lock makes a concurrent close wait for this transaction.
		locked, err := stores.Discussions().GetForShare(ctx, in.DiscussionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrDiscussionNotFound
			}
			return fmt.Errorf("locking discussion: %w", err)
		}
		if !locked.IsOpen() {
			return ErrDiscussionClosed
		}
		// Moderation may have outlasted the deadline.
		if locked.DeadlinePassed(s.now()) {
			return ErrDeadlinePassed
		}

		if err := stores.Responses().Create(ctx, resp); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadyResponded
			}
			return fmt.Errorf("creating response: %w", err)
		}

		marked, err := stores.Participants().MarkResponded(ctx, in.DiscussionID, in.UserID)
		if err != nil {
			return fmt.Errorf("marking participant responded: %w", err)
		}
		if !marked {
			return ErrAlreadyResponded
		}
		return nil
	})
	if errors.Is(err, ErrDeadlinePassed) {
		return nil, s.rejectLate(ctx, in.DiscussionID)
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "response recorded", "response_id", resp.ID, "anonymous", resp.IsAnonymous)

	closed, err := s.lifecycle.Evaluate(ctx, in.DiscussionID)
	if err != nil {
		// The response is committed; a failed evaluation is retried by later
		// views and by the sweep.
		slog.ErrorContext(ctx, "closure evaluation after response failed", "error", err)
	}

	return &SubmitResponseResult{Response: resp, Closed: closed}, nil
}

// rejectLate closes a discussion whose deadline passed under a submission.
func (s *discussionService) rejectLate(ctx context.Context, discussionID int64) error {
	if _, err := s.lifecycle.Evaluate(ctx, discussionID); err != nil {
		slog.WarnContext(ctx, "closure evaluation after late submission failed", "error", err)
	}
	return ErrDeadlinePassed
}

func (s *discussionService) ListResponses(ctx context.Context, userID, discussionID int64) ([]model.Response, error) {
	d, err := getDiscussion(ctx, s.stores, discussionID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.stores, d, userID); err != nil {
		return nil, err
	}

	responses, err := s.stores.Responses().ListByDiscussion(ctx, discussionID)
	if err != nil {
		return nil, fmt.Errorf("listing responses: %w", err)
	}
	return maskAnonymous(responses, userID), nil
}

// maskAnonymous clears the author of anonymous responses the viewer did not write.
func maskAnonymous(responses []model.Response, viewerID int64) []model.Response {
	for i := range responses {
		if responses[i].IsAnonymous && responses[i].UserID != viewerID {
			responses[i].UserID = 0
		}
	}
	return responses
}

func (s *discussionService) LikeResponse(ctx context.Context, userID, discussionID, responseID int64) error {
	d, err := getDiscussion(ctx, s.stores, discussionID)
	if err != nil {
		return err
	}
	if !d.LikesEnabled {
		return ErrLikesDisabled
	}
	if err := requireMember(ctx, s.stores, d, userID); err != nil {
		return err
	}

	resp, err := s.stores.Responses().GetByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResponseNotFound
		}
		return fmt.Errorf("getting response: %w", err)
	}
	if resp.DiscussionID != discussionID {
		return ErrResponseNotFound
	}

	if _, err := s.stores.Responses().Like(ctx, responseID, userID); err != nil {
		return fmt.Errorf("liking response: %w", err)
	}
	return nil
}

func (s *discussionService) Close(ctx context.Context, userID, discussionID int64) (*model.Discussion, error) {
	d, err := getDiscussion(ctx, s.stores, discussionID)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != userID {
		return nil, ErrNotOwner
	}
	if !d.IsOpen() {
		return nil, ErrDiscussionClosed
	}

	closed, err := s.lifecycle.Close(ctx, discussionID, model.ClosedByManual)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, ErrDiscussionClosed
	}

	return getDiscussion(ctx, s.stores, discussionID)
}

func getDiscussion(ctx context.Context, stores StoreProvider, discussionID int64) (*model.Discussion, error) {
	d, err := stores.Discussions().GetByID(ctx, discussionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, fmt.Errorf("getting discussion: %w", err)
	}
	return d, nil
}

// requireMember allows the owner and invited participants.
func requireMember(ctx context.Context, stores StoreProvider, d *model.Discussion, userID int64) error {
	if d.OwnerID == userID {
		return nil
	}
	if _, err := stores.Participants().Get(ctx, d.ID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotParticipant
		}
		return fmt.Errorf("getting participant: %w", err)
	}
	return nil
}
