package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"reconflow/internal/config"
	"reconflow/internal/dao"
	"reconflow/internal/models"
	recon "reconflow/pkg/errors"
	"reconflow/pkg/logger"
	"reconflow/pkg/runner"
)

// ScanRequest carries everything one job execution needs. FromAsset is the
// provenance string stamped onto every result row the job produces.
type ScanRequest struct {
	TaskID    string
	Kind      string
	Target    string
	Ports     string
	Wordlist  string
	Delay     int
	FromJobID string
	FromAsset string
}

// Executor runs one scan job end to end: external tool, ingestion, terminal
// transition, fan-out. It owns no shared mutable state; jobs communicate
// only through the store.
type Executor struct {
	cfg       *config.Config
	tools     runner.ToolSet
	jobDao    dao.JobDAO
	resultDao dao.ResultDAO
	runner    runner.CommandRunner
	ingestor  *Ingestor
	chainer   *ChainEngine
	progress  *ProgressTracker
	notifier  Notifier
	logger    *logger.Logger
}

func NewExecutor(cfg *config.Config, tools runner.ToolSet, jobDao dao.JobDAO, resultDao dao.ResultDAO, cmdRunner runner.CommandRunner, ingestor *Ingestor, chainer *ChainEngine, progress *ProgressTracker, notifier Notifier, log *logger.Logger) *Executor {
	return &Executor{
		cfg:       cfg,
		tools:     tools,
		jobDao:    jobDao,
		resultDao: resultDao,
		runner:    cmdRunner,
		ingestor:  ingestor,
		chainer:   chainer,
		progress:  progress,
		notifier:  notifier,
		logger:    log,
	}
}

// outputPath gives each job a private output file keyed by its id, so
// concurrent jobs never collide.
func (e *Executor) outputPath(req ScanRequest) string {
	ext := ".json"
	if req.Kind == models.KindPort {
		ext = ".xml"
	}
	return filepath.Join(e.cfg.OutputDir, req.TaskID+ext)
}

func (e *Executor) Execute(req ScanRequest) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during scan execution", logger.Fields{"task_id": req.TaskID, "panic": r})
			e.markError(req.TaskID, fmt.Sprintf("panic during scan execution: %v", r))
		}
	}()

	if err := e.jobDao.Transition(req.TaskID, models.StatusRunning, ""); err != nil {
		e.logger.Error("Failed to mark job running", logger.Fields{"task_id": req.TaskID, "error": err})
		return
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		e.markError(req.TaskID, fmt.Sprintf("create output dir: %v", err))
		return
	}

	outputFile := e.outputPath(req)
	defer os.Remove(outputFile)
	defer e.progress.Forget(req.TaskID)

	spec, vars := e.invocation(req, outputFile)

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ToolTimeout)
	defer cancel()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	monitorDone := make(chan struct{})
	go WatchOutputFile(monitorCtx, outputFile, req.TaskID, e.progress, monitorDone)

	runErr := e.runner.Run(ctx, spec.Command, spec.BuildArgs(vars))

	stopMonitor()
	<-monitorDone

	if runErr != nil {
		toolErr := recon.NewToolError(spec.Command, runErr)
		e.logger.WithJob(req.TaskID, req.Kind).Error(toolErr.Error())
		e.markError(req.TaskID, toolErr.Error())
		return
	}

	// Terminal transition happens only after every row is durable, so a
	// Completed job is never visible with a partial result set.
	count, ingestErr := e.ingest(req, outputFile)
	if ingestErr != nil {
		e.markError(req.TaskID, ingestErr.Error())
		return
	}

	if err := e.jobDao.Transition(req.TaskID, models.StatusCompleted, ""); err != nil {
		e.logger.Error("Failed to mark job completed", logger.Fields{"task_id": req.TaskID, "error": err})
		return
	}

	e.logger.WithJob(req.TaskID, req.Kind).Info("Scan completed")
	e.notify(req.TaskID, count)
	e.chainer.ChainFrom(req.TaskID)
}

// invocation resolves the tool spec and placeholder variables per kind.
func (e *Executor) invocation(req ScanRequest, outputFile string) (runner.ToolSpec, map[string]string) {
	switch req.Kind {
	case models.KindSubdomain:
		return e.tools.Subdomain, map[string]string{
			"target": req.Target,
			"output": outputFile,
		}
	case models.KindPort:
		return e.tools.Port, map[string]string{
			"target": req.Target,
			"ports":  req.Ports,
			"output": outputFile,
		}
	default:
		return e.tools.Path, map[string]string{
			"url":      req.Target,
			"wordlist": req.Wordlist,
			"delay":    strconv.Itoa(req.Delay),
			"output":   outputFile,
		}
	}
}

func (e *Executor) ingest(req ScanRequest, outputFile string) (int64, error) {
	switch req.Kind {
	case models.KindSubdomain:
		rows, err := e.ingestor.IngestSubdomains(req, outputFile)
		if err != nil {
			return 0, err
		}
		return int64(len(rows)), e.resultDao.SaveSubdomains(rows)
	case models.KindPort:
		rows, err := e.ingestor.IngestPorts(req, outputFile)
		if err != nil {
			return 0, err
		}
		return int64(len(rows)), e.resultDao.SavePorts(rows)
	default:
		rows, err := e.ingestor.IngestPaths(req, outputFile)
		if err != nil {
			return 0, err
		}
		return int64(len(rows)), e.resultDao.SavePaths(rows)
	}
}

func (e *Executor) markError(taskID, message string) {
	if err := e.jobDao.Transition(taskID, models.StatusError, message); err != nil {
		e.logger.Error("Failed to mark job errored", logger.Fields{"task_id": taskID, "error": err})
		return
	}
	e.notify(taskID, 0)
}

func (e *Executor) notify(taskID string, resultCount int64) {
	if e.notifier == nil {
		return
	}
	job, err := e.jobDao.GetJob(taskID)
	if err != nil {
		return
	}
	e.notifier.NotifyJobFinished(job, resultCount)
}
