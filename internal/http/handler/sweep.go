package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/internal/http/dto"
	"github.com/endrithotii/daskann/internal/service"
)

type SweepHandler struct {
	sweep service.SweepService
}

func NewSweepHandler(sweep service.SweepService) *SweepHandler {
	return &SweepHandler{sweep: sweep}
}

// Run triggers one sweep. A partially failed sweep still reports what it did.
func (h *SweepHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.sweep.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "sweep run failed", "error", err,
			"reminders", result.Reminders,
			"closed", result.Closed)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "sweep run failed",
			"count":     result.Reminders,
			"closed":    result.Closed,
			"recovered": result.Recovered,
		})
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{
		Count:     result.Reminders,
		Closed:    result.Closed,
		Recovered: result.Recovered,
	})
}
