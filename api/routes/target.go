package routes

import (
	"reconflow/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitTargetRoutes(router *gin.RouterGroup, h *handlers.TargetHandler) {
	target := router.Group("/target")
	{
		target.GET("/assets", h.ListAssets)
		target.POST("/create", h.CreateTarget)
		target.POST("/tree", h.AssetTree)
		target.DELETE("/:task_id", h.DeleteTarget)
	}
}
