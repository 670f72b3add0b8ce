package routes

import (
	"reconflow/internal/handlers"
	"reconflow/internal/models"

	"github.com/gin-gonic/gin"
)

func InitScanRoutes(router *gin.RouterGroup, h *handlers.ScanHandler) {
	subdomain := router.Group("/subdomain")
	{
		subdomain.POST("/scan", h.StartSubdomainScan)
		subdomain.POST("/task_status", h.TaskStatus)
		subdomain.GET("/all_tasks", h.AllTasks(models.KindSubdomain))
		subdomain.DELETE("/task/:task_id", h.DeleteTask)
		subdomain.DELETE("/result/:id", h.DeleteResult(models.KindSubdomain))
	}

	port := router.Group("/port")
	{
		port.POST("/scan", h.StartPortScan)
		port.POST("/task_status", h.TaskStatus)
		port.GET("/all_tasks", h.AllTasks(models.KindPort))
		port.DELETE("/task/:task_id", h.DeleteTask)
		port.DELETE("/result/:id", h.DeleteResult(models.KindPort))
	}

	path := router.Group("/path")
	{
		path.POST("/scan", h.StartPathScan)
		path.POST("/task_status", h.TaskStatus)
		path.GET("/all_tasks", h.AllTasks(models.KindPath))
		path.DELETE("/task/:task_id", h.DeleteTask)
		path.DELETE("/result/:id", h.DeleteResult(models.KindPath))
	}
}
