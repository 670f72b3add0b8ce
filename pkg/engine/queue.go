// Package engine provides the dispatch substrate: a bounded queue that runs
// scan jobs as independent units of work.
package engine

import (
	"sync"

	"reconflow/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Queue bounds concurrent scan execution with a semaphore. Submit is
// fire-and-forget: fan-out children are enqueued and the caller returns
// without waiting.
type Queue struct {
	semaphore chan struct{}
	running   int
	queued    int
	mu        sync.Mutex
	wg        sync.WaitGroup
	logger    *logger.Logger
}

func NewQueue(maxConcurrent int) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	q := &Queue{
		semaphore: make(chan struct{}, maxConcurrent),
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
	q.logger.Info("Scan queue initialized", logger.Fields{"max_concurrent": maxConcurrent})
	return q
}

// Submit schedules fn on the queue and returns immediately. A panicking job
// is contained; it never takes the worker down.
func (q *Queue) Submit(taskID string, fn func()) {
	q.mu.Lock()
	q.queued++
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		q.semaphore <- struct{}{}
		q.mu.Lock()
		q.queued--
		q.running++
		q.mu.Unlock()

		defer func() {
			<-q.semaphore
			q.mu.Lock()
			q.running--
			q.mu.Unlock()

			if r := recover(); r != nil {
				q.logger.Error("panic in scan job", logger.Fields{"task_id": taskID, "panic": r})
			}
		}()

		q.logger.Debug("Scan execution started", logger.Fields{"task_id": taskID})
		fn()
	}()
}

// Wait blocks until every submitted job has finished. Used by the one-shot
// CLI and by tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Status returns current queue occupancy.
func (q *Queue) Status() (running, queued, maxConcurrent int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running, q.queued, cap(q.semaphore)
}
