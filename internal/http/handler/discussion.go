package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/internal/http/dto"
	"github.com/endrithotii/daskann/internal/http/middleware"
	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/service"
)

type DiscussionHandler struct {
	discussions service.DiscussionService
	analysis    service.AnalysisService
}

func NewDiscussionHandler(discussions service.DiscussionService, analysis service.AnalysisService) *DiscussionHandler {
	return &DiscussionHandler{
		discussions: discussions,
		analysis:    analysis,
	}
}

func (h *DiscussionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.discussions.Create(ctx, service.CreateDiscussionInput{
		OwnerID:          userID,
		Title:            req.Title,
		Prompt:           req.Prompt,
		StartDate:        req.StartDate,
		DeadlineAt:       req.DeadlineAt,
		Urgency:          model.Urgency(req.Urgency),
		AllowAnonymous:   req.AllowAnonymous,
		LikesEnabled:     req.LikesEnabled,
		UserIDs:          req.UserIDs,
		DepartmentIDs:    req.DepartmentIDs,
		RoleIDs:          req.RoleIDs,
		IncludeCreator:   req.IncludeCreator,
		ReminderLeadTime: time.Duration(req.ReminderLeadMinutes) * time.Minute,
	})
	if err != nil {
		respondError(c, err, "failed to create discussion")
		return
	}

	c.JSON(http.StatusCreated, dto.ToDiscussionResponse(view.Discussion, view.Participants))
}

func (h *DiscussionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussions, err := h.discussions.ListForUser(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to list discussions")
		return
	}

	resp := make([]dto.DiscussionResponse, len(discussions))
	for i := range discussions {
		resp[i] = dto.ToDiscussionResponse(&discussions[i], nil)
	}
	c.JSON(http.StatusOK, gin.H{"discussions": resp})
}

func (h *DiscussionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.discussions.Get(ctx, userID, discussionID)
	if err != nil {
		respondError(c, err, "failed to get discussion")
		return
	}

	c.JSON(http.StatusOK, dto.ToDiscussionResponse(view.Discussion, view.Participants))
}

func (h *DiscussionHandler) SubmitResponse(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.discussions.SubmitResponse(ctx, service.SubmitResponseInput{
		DiscussionID: discussionID,
		UserID:       userID,
		Text:         req.Text,
		IsAnonymous:  req.IsAnonymous,
	})
	if err != nil {
		respondError(c, err, "failed to submit response")
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitResponseResponse{
		Response:         dto.ToResponseResponse(*result.Response),
		DiscussionClosed: result.Closed,
	})
}

func (h *DiscussionHandler) ListResponses(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	responses, err := h.discussions.ListResponses(ctx, userID, discussionID)
	if err != nil {
		respondError(c, err, "failed to list responses")
		return
	}

	resp := make([]dto.ResponseResponse, len(responses))
	for i, r := range responses {
		resp[i] = dto.ToResponseResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"responses": resp})
}

func (h *DiscussionHandler) LikeResponse(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	responseID, ok := pathID(c, "response_id")
	if !ok {
		return
	}

	if err := h.discussions.LikeResponse(ctx, userID, discussionID, responseID); err != nil {
		respondError(c, err, "failed to like response")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *DiscussionHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	d, err := h.discussions.Close(ctx, userID, discussionID)
	if err != nil {
		respondError(c, err, "failed to close discussion")
		return
	}

	c.JSON(http.StatusOK, dto.ToDiscussionResponse(d, nil))
}

// Analyze regenerates the consensus analysis of a closed discussion.
func (h *DiscussionHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	discussionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	analysis, err := h.analysis.Regenerate(ctx, userID, discussionID)
	if err != nil {
		respondError(c, err, "failed to analyze discussion")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ai_analysis": analysis})
}

func pathID(c *gin.Context, param string) (int64, bool) {
	v, err := id.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return v, true
}
