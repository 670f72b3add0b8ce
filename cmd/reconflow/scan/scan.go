package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reconflow/internal/config"
	"reconflow/internal/dao"
	"reconflow/internal/database"
	"reconflow/internal/models"
	"reconflow/internal/services"
	"reconflow/pkg/logger"
	"reconflow/pkg/runner"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Opts holds the one-shot scan invocation parameters.
type Opts struct {
	Kind     string
	Target   string
	Ports    string
	Wordlist string
	Delay    int
	Verbose  bool
}

// NewScanCommand creates the scan command: submit one job, wait for its
// terminal state, print a summary. Chained follow-on jobs keep running in
// the background until the poll loop sees them finish too.
func NewScanCommand() *cobra.Command {
	opts := &Opts{}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan and wait for it to finish",
		Long:  `Run a subdomain, port, or path scan against one target and wait for the job and its chained follow-on jobs to reach a terminal state`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logLevel := logrus.InfoLevel
			if opts.Verbose {
				logLevel = logrus.DebugLevel
			}
			logger.SetLevel(logLevel)

			kind := strings.ToUpper(opts.Kind)
			if !models.IsValidKind(kind) {
				return fmt.Errorf("invalid scan kind %q, want SUBDOMAIN, PORT, or PATH", opts.Kind)
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			database.InitDB(cfg)

			jobDao := dao.NewJobDAO(database.DB)
			resultDao := dao.NewResultDAO(database.DB)
			targetDao := dao.NewTargetDAO(database.DB)
			scanService := services.NewScanService(cfg, jobDao, resultDao, targetDao, runner.NewExecRunner(), nil)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				logger.Info("Shutting down")
				cancel()
			}()

			var taskIDs []string
			switch kind {
			case models.KindSubdomain:
				taskIDs, err = scanService.SubmitSubdomainScans([]string{opts.Target}, "")
			case models.KindPort:
				taskIDs, err = scanService.SubmitPortScans([]string{opts.Target}, opts.Ports, "")
			case models.KindPath:
				taskIDs, err = scanService.SubmitPathScans(opts.Wordlist, []string{opts.Target}, opts.Delay, "")
			}
			if err != nil {
				return fmt.Errorf("submit scan: %w", err)
			}

			return waitForTasks(ctx, scanService, jobDao, taskIDs)
		},
	}

	scanCmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Scan kind: SUBDOMAIN, PORT, or PATH (required)")
	scanCmd.Flags().StringVarP(&opts.Target, "target", "t", "", "Target domain, host, or URL (required)")
	scanCmd.Flags().StringVarP(&opts.Ports, "ports", "p", "1-10000", "Port range for PORT scans")
	scanCmd.Flags().StringVarP(&opts.Wordlist, "wordlist", "w", "wordlists/common.txt", "Wordlist for PATH scans")
	scanCmd.Flags().IntVar(&opts.Delay, "delay", 0, "Per-request delay in milliseconds for PATH scans")
	scanCmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose logging")

	scanCmd.MarkFlagRequired("kind")
	scanCmd.MarkFlagRequired("target")

	return scanCmd
}

// waitForTasks polls the submitted jobs and every chained descendant until
// all of them reach a terminal state, printing each result as it lands.
func waitForTasks(ctx context.Context, scanService services.ScanServiceMethods, jobDao dao.JobDAO, taskIDs []string) error {
	pending := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		pending[id] = true
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed int
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for taskID := range pending {
			status, err := scanService.GetTaskStatus(taskID)
			if err != nil {
				logger.Error("Failed to poll task", logger.Fields{"task_id": taskID, "error": err})
				delete(pending, taskID)
				continue
			}
			if !models.IsTerminalStatus(status.TaskStatus) {
				continue
			}

			delete(pending, taskID)
			printResult(status)
			if status.TaskStatus == models.StatusError {
				failed++
			}

			// Pick up chained follow-on jobs.
			children, err := jobDao.ListJobsByFromJob(taskID)
			if err != nil {
				continue
			}
			for _, child := range children {
				if !models.IsTerminalStatus(child.Status) {
					pending[child.TaskID] = true
				} else if _, seen := pending[child.TaskID]; !seen {
					pending[child.TaskID] = true
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d job(s) finished with errors", failed)
	}
	logger.Info("All jobs finished")
	return nil
}

func printResult(status *services.TaskStatus) {
	if status.TaskResult == nil {
		return
	}
	switch {
	case status.TaskResult.ErrorMessage != "":
		fmt.Printf("[%s] %s: %s\n", status.TaskStatus, status.TaskID, status.TaskResult.ErrorMessage)
	case len(status.TaskResult.Subdomains) > 0:
		fmt.Printf("[%s] %s: %d subdomain(s)\n", status.TaskStatus, status.TaskID, len(status.TaskResult.Subdomains))
		for _, row := range status.TaskResult.Subdomains {
			fmt.Printf("  %s -> %s\n", row.Subdomain, row.IPAddress)
		}
	case len(status.TaskResult.Ports) > 0:
		fmt.Printf("[%s] %s: %d open port(s)\n", status.TaskStatus, status.TaskID, len(status.TaskResult.Ports))
		for _, row := range status.TaskResult.Ports {
			fmt.Printf("  %s:%d %s\n", row.IPAddress, row.PortNumber, row.ServiceName)
		}
	case len(status.TaskResult.Paths) > 0:
		fmt.Printf("[%s] %s: %d path(s)\n", status.TaskStatus, status.TaskID, len(status.TaskResult.Paths))
		for _, row := range status.TaskResult.Paths {
			fmt.Printf("  %d %s\n", row.Status, row.URL)
		}
	default:
		fmt.Printf("[%s] %s: no results\n", status.TaskStatus, status.TaskID)
	}
}
