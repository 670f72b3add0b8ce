package handlers

import (
	"errors"

	"reconflow/internal/services"
	recon "reconflow/pkg/errors"
	"reconflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TargetHandler struct {
	queryService services.QueryServiceMethods
	treeService  *services.TreeService
	logger       *logger.Logger
}

func NewTargetHandler(queryService services.QueryServiceMethods, treeService *services.TreeService) *TargetHandler {
	return &TargetHandler{
		queryService: queryService,
		treeService:  treeService,
		logger:       logger.NewLogger(logrus.InfoLevel),
	}
}

func (h *TargetHandler) ListAssets(c *gin.Context) {
	assets, err := h.queryService.ListTargetAssets()
	if err != nil {
		h.logger.Error("Failed to list target assets", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to list assets"})
		return
	}
	c.JSON(200, gin.H{"assets": assets})
}

func (h *TargetHandler) CreateTarget(c *gin.Context) {
	var req CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	target, err := h.queryService.CreateTarget(req.Domain)
	if err != nil {
		if errors.Is(err, recon.ErrTargetExists) {
			c.JSON(400, gin.H{"error": "Target already exists"})
			return
		}
		h.logger.Error("Failed to create target", logger.Fields{"error": err, "domain": req.Domain})
		c.JSON(500, gin.H{"error": "Failed to create target"})
		return
	}
	c.JSON(200, target)
}

func (h *TargetHandler) AssetTree(c *gin.Context) {
	var req TreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	tree, err := h.treeService.BuildTree(req.TaskID)
	if err != nil {
		if errors.Is(err, recon.ErrTargetNotFound) {
			c.JSON(404, gin.H{"error": "Target not found"})
			return
		}
		h.logger.Error("Failed to build asset tree", logger.Fields{"error": err, "task_id": req.TaskID})
		c.JSON(500, gin.H{"error": "Failed to build asset tree"})
		return
	}
	c.JSON(200, tree)
}

func (h *TargetHandler) DeleteTarget(c *gin.Context) {
	taskID := c.Param("task_id")
	if err := h.queryService.DeleteTarget(taskID); err != nil {
		if errors.Is(err, recon.ErrTargetNotFound) {
			c.JSON(404, gin.H{"error": "Target not found"})
			return
		}
		h.logger.Error("Failed to delete target", logger.Fields{"error": err, "task_id": taskID})
		c.JSON(500, gin.H{"error": "Failed to delete target"})
		return
	}
	c.JSON(200, gin.H{"message": "Target deleted"})
}
