package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"reconflow/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ExecRunner executes external tools as OS processes, capturing stderr so a
// failing scanner's complaint ends up in the job's error detail.
type ExecRunner struct {
	logger *logger.Logger
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{logger: logger.NewLogger(logrus.InfoLevel)}
}

func (r *ExecRunner) Run(ctx context.Context, command string, args []string) error {
	if command == "" {
		return fmt.Errorf("command is empty")
	}
	for i, arg := range args {
		if err := validateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument at index %d (%s): %w", i, arg, err)
		}
	}

	r.logger.WithFields(logger.Fields{
		"command": command,
		"args":    args,
	}).Info("Executing command")

	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("execution failed: %v\nstderr: %s", err, stderr.String())
		}
		return fmt.Errorf("execution failed: %w", err)
	}

	if stdout.Len() > 0 {
		r.logger.WithFields(logger.Fields{"stdout": stdout.String()}).Debug("Command stdout output")
	}

	return nil
}

// validateArgument rejects shell metacharacters; targets come from HTTP
// callers and end up on a command line.
func validateArgument(arg string) error {
	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "\n", "\r", "<", ">"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument contains dangerous character: %s", char)
		}
	}
	if strings.Contains(arg, "..") && !strings.Contains(arg, "://") {
		return fmt.Errorf("path traversal detected in argument")
	}
	return nil
}
