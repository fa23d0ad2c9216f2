package router

import (
	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/internal/http/handler"
)

// SweepRouter exposes the sweep for external schedulers. Callers must hold the admin API key.
func SweepRouter(rg *gin.RouterGroup, h *handler.SweepHandler) {
	rg.POST("/sweep", h.Run)
}
