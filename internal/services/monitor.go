package services

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"reconflow/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ProgressTracker holds live result-line counts for running jobs, so the
// all_tasks listing can show progress before ingestion lands rows.
type ProgressTracker struct {
	counts sync.Map
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

func (t *ProgressTracker) Set(taskID string, count int64) {
	t.counts.Store(taskID, count)
}

func (t *ProgressTracker) Get(taskID string) int64 {
	if value, ok := t.counts.Load(taskID); ok {
		return value.(int64)
	}
	return 0
}

func (t *ProgressTracker) Forget(taskID string) {
	t.counts.Delete(taskID)
}

// WatchOutputFile follows a running job's output file and streams its line
// count into the tracker. It waits for the tool to create the file, then
// tails it on write events, throttled to avoid hammering the tracker on
// chatty tools.
func WatchOutputFile(ctx context.Context, filePath, taskID string, tracker *ProgressTracker, done chan struct{}) {
	defer close(done)

	log := logger.NewLogger(logrus.InfoLevel)

	if !waitForFile(ctx, filePath) {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("Failed to create file watcher", logger.Fields{"error": err, "file": filePath})
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filePath); err != nil {
		log.Error("Error adding file to watcher", logger.Fields{"error": err, "file": filePath})
		return
	}

	var lastSize int64
	var total int64
	updatePending := true

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				updatePending = true
			}

		case <-ticker.C:
			if updatePending {
				total += countNewLines(filePath, &lastSize, log)
				tracker.Set(taskID, total)
				updatePending = false
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error("File watcher error", logger.Fields{"error": err, "file": filePath})

		case <-ctx.Done():
			// Final count before the executor ingests the file.
			total += countNewLines(filePath, &lastSize, log)
			tracker.Set(taskID, total)
			return
		}
	}
}

func waitForFile(ctx context.Context, filePath string) bool {
	if _, err := os.Stat(filePath); err == nil {
		return true
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(filePath); err == nil {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// countNewLines reads content appended since the last call and counts its
// non-empty lines.
func countNewLines(filePath string, lastSize *int64, log *logger.Logger) int64 {
	file, err := os.Open(filePath)
	if err != nil {
		return 0
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0
	}

	currentSize := stat.Size()
	if currentSize <= *lastSize {
		return 0
	}

	if _, err := file.Seek(*lastSize, io.SeekStart); err != nil {
		log.Error("Failed to seek output file", logger.Fields{"error": err, "file": filePath})
		return 0
	}

	newContent := make([]byte, currentSize-*lastSize)
	n, err := io.ReadFull(file, newContent)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0
	}
	newContent = newContent[:n]

	var count int64
	for _, line := range strings.Split(string(newContent), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}

	*lastSize += int64(n)
	return count
}
