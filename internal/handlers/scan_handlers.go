package handlers

import (
	"errors"
	"strconv"
	"strings"

	"reconflow/internal/services"
	recon "reconflow/pkg/errors"
	"reconflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ScanHandler struct {
	scanService services.ScanServiceMethods
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanServiceMethods) *ScanHandler {
	return &ScanHandler{scanService: scanService, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *ScanHandler) StartSubdomainScan(c *gin.Context) {
	var req SubdomainScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON", logger.Fields{"error": err})
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	taskIDs, err := h.scanService.SubmitSubdomainScans(req.Targets, req.FromID)
	if err != nil {
		h.logger.Error("Failed to start subdomain scan", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to start scan"})
		return
	}
	c.JSON(200, ScanResponse{TaskIDs: taskIDs})
}

func (h *ScanHandler) StartPortScan(c *gin.Context) {
	var req PortScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON", logger.Fields{"error": err})
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	targets := strings.Split(req.Target, ",")
	taskIDs, err := h.scanService.SubmitPortScans(targets, req.Ports, req.FromID)
	if err != nil {
		h.logger.Error("Failed to start port scan", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to start scan"})
		return
	}
	c.JSON(200, ScanResponse{TaskIDs: taskIDs})
}

func (h *ScanHandler) StartPathScan(c *gin.Context) {
	var req PathScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON", logger.Fields{"error": err})
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	taskIDs, err := h.scanService.SubmitPathScans(req.Wordlist, req.URLs, req.Delay, req.FromID)
	if err != nil {
		h.logger.Error("Failed to start path scan", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to start scan"})
		return
	}
	c.JSON(200, ScanResponse{TaskIDs: taskIDs})
}

// TaskStatus returns the job's current status plus, for terminal jobs, its
// result rows. The first successful poll flips the job's read flag as an
// explicit follow-up operation.
func (h *ScanHandler) TaskStatus(c *gin.Context) {
	var req TaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	status, err := h.scanService.GetTaskStatus(req.TaskID)
	if err != nil {
		if errors.Is(err, recon.ErrJobNotFound) {
			c.JSON(404, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("Failed to get task status", logger.Fields{"error": err, "task_id": req.TaskID})
		c.JSON(500, gin.H{"error": "Failed to get task status"})
		return
	}

	if err := h.scanService.MarkRead(req.TaskID); err != nil {
		h.logger.Warn("Failed to mark task read", logger.Fields{"error": err, "task_id": req.TaskID})
	}

	c.JSON(200, status)
}

// AllTasks lists every job of the given kind with live result counts.
func (h *ScanHandler) AllTasks(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := h.scanService.ListTasks(kind)
		if err != nil {
			h.logger.Error("Failed to list tasks", logger.Fields{"error": err, "kind": kind})
			c.JSON(500, gin.H{"error": "Failed to list tasks"})
			return
		}
		c.JSON(200, gin.H{"tasks": tasks})
	}
}

func (h *ScanHandler) DeleteTask(c *gin.Context) {
	taskID := c.Param("task_id")
	if err := h.scanService.DeleteTask(taskID); err != nil {
		if errors.Is(err, recon.ErrJobNotFound) {
			c.JSON(404, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("Failed to delete task", logger.Fields{"error": err, "task_id": taskID})
		c.JSON(500, gin.H{"error": "Failed to delete task"})
		return
	}
	c.JSON(200, gin.H{"message": "Task deleted"})
}

// DeleteResult removes one result row of the given kind by numeric id.
func (h *ScanHandler) DeleteResult(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid result id"})
			return
		}

		if err := h.scanService.DeleteResult(kind, uint(id)); err != nil {
			if errors.Is(err, recon.ErrResultNotFound) {
				c.JSON(404, gin.H{"error": "Result not found"})
				return
			}
			h.logger.Error("Failed to delete result", logger.Fields{"error": err, "kind": kind, "id": id})
			c.JSON(500, gin.H{"error": "Failed to delete result"})
			return
		}
		c.JSON(200, gin.H{"message": "Result deleted"})
	}
}
