package services

import (
	"fmt"
	"strings"
	"time"

	"reconflow/internal/config"
	"reconflow/internal/dao"
	"reconflow/internal/models"
	"reconflow/pkg/engine"
	recon "reconflow/pkg/errors"
	"reconflow/pkg/logger"
	"reconflow/pkg/probe"
	"reconflow/pkg/runner"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TaskResult is the terminal payload returned by the task_status poll.
type TaskResult struct {
	Subdomains   []models.Subdomain  `json:"subdomains,omitempty"`
	Ports        []models.Port       `json:"ports,omitempty"`
	Paths        []models.PathResult `json:"paths,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// TaskStatus is the task_status response body.
type TaskStatus struct {
	TaskID     string      `json:"task_id"`
	TaskStatus string      `json:"task_status"`
	TaskResult *TaskResult `json:"task_result,omitempty"`
}

type ScanServiceMethods interface {
	SubmitSubdomainScans(targets []string, fromJobID string) ([]string, error)
	SubmitPortScans(targets []string, ports, fromJobID string) ([]string, error)
	SubmitPathScans(wordlist string, urls []string, delay int, fromJobID string) ([]string, error)

	GetTaskStatus(taskID string) (*TaskStatus, error)
	MarkRead(taskID string) error
	ListTasks(kind string) ([]models.JobSummary, error)
	DeleteTask(taskID string) error
	DeleteResult(kind string, id uint) error
}

type scanService struct {
	jobDao    dao.JobDAO
	resultDao dao.ResultDAO
	targetDao dao.TargetDAO
	executor  *Executor
	queue     *engine.Queue
	progress  *ProgressTracker
	logger    *logger.Logger
}

// Notifier receives terminal job notifications. Satisfied by the discord
// notification client; nil disables notifications.
type Notifier interface {
	NotifyJobFinished(job *models.ScanJob, resultCount int64)
}

// NewScanService wires the scan service with its executor and chain engine.
func NewScanService(cfg *config.Config, jobDao dao.JobDAO, resultDao dao.ResultDAO, targetDao dao.TargetDAO, cmdRunner runner.CommandRunner, notifier Notifier) ScanServiceMethods {
	log := logger.NewLogger(logrus.InfoLevel)
	queue := engine.NewQueue(cfg.MaxConcurrentScans)
	progress := NewProgressTracker()

	tools, err := runner.LoadToolSet(cfg.ToolsFile)
	if err != nil {
		log.Warn("Failed to load tools file, using defaults", logger.Fields{"error": err})
	}

	s := &scanService{
		jobDao:    jobDao,
		resultDao: resultDao,
		targetDao: targetDao,
		queue:     queue,
		progress:  progress,
		logger:    log,
	}

	chainer := NewChainEngine(jobDao, resultDao, log)
	ingestor := NewIngestor(probe.NewProber(cfg.ProbeTimeout), log)
	s.executor = NewExecutor(cfg, tools, jobDao, resultDao, cmdRunner, ingestor, chainer, progress, notifier, log)
	chainer.dispatch = s.dispatch

	return s
}

// dispatch creates a Pending job and submits its execution. Shared by the
// HTTP submission paths and the chain engine's fan-out.
func (s *scanService) dispatch(req ScanRequest) (string, error) {
	job := &models.ScanJob{
		TaskID:    uuid.New().String(),
		Target:    req.Target,
		Kind:      req.Kind,
		Status:    models.StatusPending,
		StartTime: time.Now(),
		FromJobID: req.FromJobID,
	}
	if err := s.jobDao.CreateJob(job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	req.TaskID = job.TaskID
	s.queue.Submit(job.TaskID, func() {
		s.executor.Execute(req)
	})
	return job.TaskID, nil
}

func (s *scanService) SubmitSubdomainScans(targets []string, fromJobID string) ([]string, error) {
	taskIDs := make([]string, 0, len(targets))
	for _, target := range targets {
		id, err := s.dispatch(ScanRequest{
			Kind:      models.KindSubdomain,
			Target:    target,
			FromJobID: fromJobID,
			FromAsset: target,
		})
		if err != nil {
			return taskIDs, err
		}
		taskIDs = append(taskIDs, id)
	}
	return taskIDs, nil
}

func (s *scanService) SubmitPortScans(targets []string, ports, fromJobID string) ([]string, error) {
	taskIDs := make([]string, 0, len(targets))
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		id, err := s.dispatch(ScanRequest{
			Kind:      models.KindPort,
			Target:    target,
			Ports:     ports,
			FromJobID: fromJobID,
			FromAsset: target,
		})
		if err != nil {
			return taskIDs, err
		}
		taskIDs = append(taskIDs, id)
	}
	return taskIDs, nil
}

func (s *scanService) SubmitPathScans(wordlist string, urls []string, delay int, fromJobID string) ([]string, error) {
	taskIDs := make([]string, 0, len(urls))
	for _, url := range urls {
		id, err := s.dispatch(ScanRequest{
			Kind:      models.KindPath,
			Target:    url,
			Wordlist:  wordlist,
			Delay:     delay,
			FromJobID: fromJobID,
			FromAsset: url,
		})
		if err != nil {
			return taskIDs, err
		}
		taskIDs = append(taskIDs, id)
	}
	return taskIDs, nil
}

func (s *scanService) GetTaskStatus(taskID string) (*TaskStatus, error) {
	job, err := s.jobDao.GetJob(taskID)
	if err != nil {
		return nil, err
	}

	status := &TaskStatus{
		TaskID:     job.TaskID,
		TaskStatus: job.Status,
	}

	if !models.IsTerminalStatus(job.Status) {
		return status, nil
	}

	result := &TaskResult{ErrorMessage: job.ErrorMessage}
	switch job.Kind {
	case models.KindSubdomain:
		result.Subdomains, err = s.resultDao.ListSubdomains(taskID)
	case models.KindPort:
		result.Ports, err = s.resultDao.ListPorts(taskID)
	case models.KindPath:
		result.Paths, err = s.resultDao.ListPaths(taskID)
	}
	if err != nil {
		return nil, err
	}
	status.TaskResult = result
	return status, nil
}

func (s *scanService) MarkRead(taskID string) error {
	return s.jobDao.MarkRead(taskID)
}

func (s *scanService) ListTasks(kind string) ([]models.JobSummary, error) {
	if !models.IsValidKind(kind) {
		return nil, recon.ErrInvalidKind
	}

	jobs, err := s.jobDao.ListJobsByKind(kind)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		count, err := s.resultDao.CountResults(job.TaskID, job.Kind)
		if err != nil {
			return nil, err
		}
		// A running job's rows land only at ingestion time; surface the
		// live line count streamed off the tool's output file instead.
		if job.Status == models.StatusRunning {
			if seen := s.progress.Get(job.TaskID); seen > count {
				count = seen
			}
		}

		summary := models.JobSummary{
			TaskID:      job.TaskID,
			Target:      job.Target,
			Status:      job.Status,
			ResultCount: count,
			StartTime:   job.StartTime.Format(time.RFC3339),
			From:        s.fromLabel(job.FromJobID),
			IsRead:      job.IsRead,
		}
		if job.EndTime != nil {
			summary.EndTime = job.EndTime.Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// fromLabel renders the upstream reference for display: the upstream job's
// kind and target, or the target domain when the id belongs to a Target.
func (s *scanService) fromLabel(fromJobID string) string {
	if fromJobID == "" {
		return ""
	}
	if job, err := s.jobDao.GetJob(fromJobID); err == nil {
		return fmt.Sprintf("%s - %s", job.Kind, job.Target)
	}
	if target, err := s.targetDao.GetTarget(fromJobID); err == nil {
		return fmt.Sprintf("domain - %s", target.Domain)
	}
	return ""
}

func (s *scanService) DeleteTask(taskID string) error {
	return s.jobDao.DeleteJob(taskID)
}

func (s *scanService) DeleteResult(kind string, id uint) error {
	switch kind {
	case models.KindSubdomain:
		return s.resultDao.DeleteSubdomain(id)
	case models.KindPort:
		return s.resultDao.DeletePort(id)
	case models.KindPath:
		return s.resultDao.DeletePath(id)
	default:
		return recon.ErrInvalidKind
	}
}
