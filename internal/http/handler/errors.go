package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/internal/service"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500 carrying only fallback.
func respondError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()

	var (
		validationErr *service.ValidationError
		rejectedErr   *service.ContentRejectedError
		externalErr   *service.ExternalServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason, "field": validationErr.Field})
	case errors.As(err, &rejectedErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "response rejected by moderation", "message": rejectedErr.UserMessage})
	case errors.As(err, &externalErr):
		status := http.StatusBadGateway
		if errors.Is(externalErr, service.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		slog.WarnContext(ctx, "external service unavailable", "service", externalErr.Service, "error", err)
		c.JSON(status, gin.H{"error": externalErr.Service + " is temporarily unavailable"})
	case errors.Is(err, service.ErrNotParticipant), errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDiscussionNotFound),
		errors.Is(err, service.ErrResponseNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDiscussionClosed),
		errors.Is(err, service.ErrDiscussionOpen),
		errors.Is(err, service.ErrDiscussionNotStarted),
		errors.Is(err, service.ErrDeadlinePassed),
		errors.Is(err, service.ErrAlreadyResponded),
		errors.Is(err, service.ErrNoResponses),
		errors.Is(err, service.ErrLikesDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(ctx, fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
