package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/internal/http/dto"
	"github.com/endrithotii/daskann/internal/http/middleware"
	"github.com/endrithotii/daskann/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	var limit int32
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = int32(v)
	}

	items, err := h.notifications.List(ctx, userID, limit)
	if err != nil {
		respondError(c, err, "failed to list notifications")
		return
	}

	resp := make([]dto.NotificationResponse, len(items))
	unread := 0
	for i, n := range items {
		resp[i] = dto.ToNotificationResponse(n)
		if !n.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": resp, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	notificationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		respondError(c, err, "failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserID(c)

	n, err := h.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
