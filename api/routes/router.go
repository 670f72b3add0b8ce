package routes

import (
	"reconflow/internal/config"
	"reconflow/internal/dao"
	"reconflow/internal/handlers"
	"reconflow/internal/notification"
	"reconflow/internal/services"
	"reconflow/pkg/logger"
	"reconflow/pkg/runner"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func InitRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	jobDao := dao.NewJobDAO(db)
	resultDao := dao.NewResultDAO(db)
	targetDao := dao.NewTargetDAO(db)

	var notifier services.Notifier
	if client, err := notification.NewNotificationClient(); err == nil {
		notifier = client
	} else {
		logger.Info("Discord notifications disabled", logger.Fields{"reason": err.Error()})
	}

	scanService := services.NewScanService(cfg, jobDao, resultDao, targetDao, runner.NewExecRunner(), notifier)
	queryService := services.NewQueryService(jobDao, resultDao, targetDao)
	treeService := services.NewTreeService(jobDao, resultDao, targetDao)

	scanHandlers := handlers.NewScanHandler(scanService)
	targetHandlers := handlers.NewTargetHandler(queryService, treeService)
	pruningHandlers := handlers.NewPruningHandler(queryService)

	api := router.Group("/api")
	{
		InitScanRoutes(api, scanHandlers)
		InitTargetRoutes(api, targetHandlers)
		InitPruningRoutes(api, pruningHandlers)
	}

	return router
}
