package handlers

import (
	"errors"
	"strconv"

	"reconflow/internal/dao"
	"reconflow/internal/services"
	recon "reconflow/pkg/errors"
	"reconflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PruningHandler struct {
	queryService services.QueryServiceMethods
	logger       *logger.Logger
}

func NewPruningHandler(queryService services.QueryServiceMethods) *PruningHandler {
	return &PruningHandler{queryService: queryService, logger: logger.NewLogger(logrus.InfoLevel)}
}

// PruneByStatusCode deletes a job's result rows matching (or, with
// invert=true, not matching) the given status code. field selects the
// http or https probe column; PATH jobs use the response status.
func (h *PruningHandler) PruneByStatusCode(c *gin.Context) {
	taskID := c.Param("task_id")

	codeParam := c.Query("status_code")
	if codeParam == "" {
		c.JSON(400, gin.H{"error": "Missing status_code parameter"})
		return
	}
	code, err := strconv.Atoi(codeParam)
	if err != nil {
		c.JSON(400, gin.H{"error": "status_code must be an integer"})
		return
	}

	field := c.DefaultQuery("field", dao.FieldHTTP)
	if field != dao.FieldHTTP && field != dao.FieldHTTPS {
		c.JSON(400, gin.H{"error": "field must be http or https"})
		return
	}

	invert := c.Query("invert") == "true"

	deleted, err := h.queryService.PruneByStatusCode(taskID, field, code, invert)
	if err != nil {
		if errors.Is(err, recon.ErrJobNotFound) {
			c.JSON(404, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("Failed to prune by status code", logger.Fields{"error": err, "task_id": taskID})
		c.JSON(500, gin.H{"error": "Failed to prune results"})
		return
	}
	c.JSON(200, gin.H{"deleted": deleted})
}

// PruneDuplicates keeps one row per distinct discovered value (the lowest
// id) and deletes the rest.
func (h *PruningHandler) PruneDuplicates(c *gin.Context) {
	taskID := c.Param("task_id")

	deleted, err := h.queryService.PruneDuplicates(taskID)
	if err != nil {
		if errors.Is(err, recon.ErrJobNotFound) {
			c.JSON(404, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("Failed to prune duplicates", logger.Fields{"error": err, "task_id": taskID})
		c.JSON(500, gin.H{"error": "Failed to prune results"})
		return
	}
	c.JSON(200, gin.H{"deleted": deleted})
}
