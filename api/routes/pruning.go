package routes

import (
	"reconflow/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitPruningRoutes(router *gin.RouterGroup, h *handlers.PruningHandler) {
	pruning := router.Group("/pruning")
	{
		pruning.DELETE("/:task_id/status", h.PruneByStatusCode)
		pruning.DELETE("/:task_id/duplicates", h.PruneDuplicates)
	}
}
