package router

import (
	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/internal/http/handler"
)

func DiscussionRouter(rg *gin.RouterGroup, h *handler.DiscussionHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/close", h.Close)
	rg.POST("/:id/analysis", h.Analyze)

	rg.POST("/:id/responses", h.SubmitResponse)
	rg.GET("/:id/responses", h.ListResponses)
	rg.POST("/:id/responses/:response_id/like", h.LikeResponse)
}
