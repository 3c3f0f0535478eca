package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/metafields/pkg/logger"
)

// WorkerRepository defines the interface for worker operations
type WorkerRepository interface {
	// ClaimTask atomically claims the next available task or returns ErrNoTaskToClaim.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)

	// CompleteTask marks task as completed
	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// FailTask records the error, increments the retry count and reschedules
	// the task, or marks it failed once retries are exhausted.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error

	// MoveToDLQ moves task to the dead letter queue
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error
}

// Worker pulls tasks from the configured queues and runs their handlers.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	queues   []string
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex

	pullInterval time.Duration
	lockTimeout  time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a new task worker
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		queues:             []string{DefaultQueueName},
		pullInterval:       time.Second,
		lockTimeout:        5 * time.Minute,
		maxConcurrentTasks: 1,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	workerID := uuid.New()
	return &Worker{
		repo:         repo,
		handlers:     make(map[string]Handler),
		queues:       options.queues,
		workerID:     workerID,
		sem:          make(chan struct{}, options.maxConcurrentTasks),
		pullInterval: options.pullInterval,
		lockTimeout:  options.lockTimeout,
		logger: options.logger.With(
			logger.Component("queue.worker"),
			slog.String("worker_id", workerID.String()),
		),
	}, nil
}

// RegisterHandlers registers task handlers by name. Later registrations win.
func (w *Worker) RegisterHandlers(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
}

// Start begins processing tasks in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerStarted
	}
	if len(w.handlers) == 0 {
		return ErrNoHandlers
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx, w.done)

	w.logger.Info("worker started",
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop cancels polling and waits for in-flight tasks to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return ErrWorkerNotStarted
	}

	cancel()
	<-done
	w.wg.Wait()

	w.logger.Info("worker stopped")
	return nil
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		select {
		case w.sem <- struct{}{}:
		default:
			w.logger.Debug("all worker slots busy, skipping tick")
			continue
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			if _, err := w.pullAndProcess(ctx); err != nil && !errors.Is(err, ErrHandlerNotFound) {
				w.logger.Error("failed to process task", logger.Error(err))
			}
		}()
	}
}

// Drain processes ready tasks synchronously until none is left to claim and
// returns how many were processed. Intended for tests and one-shot tooling.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	processed := 0
	for {
		ok, err := w.pullAndProcess(ctx)
		if err != nil && !errors.Is(err, ErrHandlerNotFound) {
			return processed, err
		}
		if !ok {
			return processed, nil
		}
		processed++
	}
}

// pullAndProcess claims one task and runs it. It reports false when nothing was claimed.
func (w *Worker) pullAndProcess(ctx context.Context) (bool, error) {
	task, err := w.repo.ClaimTask(ctx, w.workerID, w.queues, w.lockTimeout)
	if errors.Is(err, ErrNoTaskToClaim) || (err == nil && task == nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim task: %w", err)
	}

	w.logger.Debug("claimed task",
		logger.TaskID(task.ID),
		slog.String("task_name", task.TaskName),
		slog.String("queue", task.Queue))

	// Bookkeeping must survive worker shutdown, otherwise a finished task stays locked.
	return true, w.processTask(context.WithoutCancel(ctx), task)
}

func (w *Worker) processTask(ctx context.Context, task *Task) (retErr error) {
	start := time.Now()

	w.mu.Lock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.Unlock()

	if !ok {
		return w.handleMissingHandler(ctx, task)
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("handler panicked",
				logger.TaskID(task.ID),
				slog.String("task_name", task.TaskName),
				slog.Any("panic", r))
			retErr = w.handleTaskFailure(ctx, task, fmt.Errorf("panic in handler: %v", r), time.Since(start))
		}
	}()

	handlerCtx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()

	if err := handler.Handle(handlerCtx, task.Payload); err != nil {
		return w.handleTaskFailure(ctx, task, err, time.Since(start))
	}

	if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to mark task %s as completed: %w", task.ID, err)
	}

	w.logger.Info("task completed",
		logger.TaskID(task.ID),
		slog.String("task_name", task.TaskName),
		slog.String("queue", task.Queue),
		logger.Duration(time.Since(start)))

	return nil
}

// handleMissingHandler dead-letters the task right away; retrying cannot help
// until a handler is deployed.
func (w *Worker) handleMissingHandler(ctx context.Context, task *Task) error {
	w.logger.Error("no handler registered for task type",
		logger.TaskID(task.ID),
		slog.String("task_name", task.TaskName))

	if err := w.repo.FailTask(ctx, task.ID, "no handler registered for task type: "+task.TaskName); err != nil {
		return fmt.Errorf("failed to mark task %s as failed: %w", task.ID, err)
	}
	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to move task %s to DLQ: %w", task.ID, err)
	}

	return ErrHandlerNotFound
}

// handleTaskFailure records the failure; storage reschedules the task while
// retries remain. The task is dead-lettered once this attempt used the last retry.
func (w *Worker) handleTaskFailure(ctx context.Context, task *Task, execErr error, duration time.Duration) error {
	w.logger.Error("task failed",
		logger.TaskID(task.ID),
		slog.String("task_name", task.TaskName),
		logger.RetryCount(int(task.RetryCount)),
		slog.Int("max_retries", int(task.MaxRetries)),
		logger.Duration(duration),
		logger.Error(execErr))

	if err := w.repo.FailTask(ctx, task.ID, execErr.Error()); err != nil {
		return fmt.Errorf("failed to update task %s status to failed: %w", task.ID, err)
	}

	if task.RetryCount+1 >= task.MaxRetries {
		if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to move task %s to DLQ after max retries: %w", task.ID, err)
		}
		w.logger.Warn("task moved to dead letter queue",
			logger.TaskID(task.ID),
			slog.String("task_name", task.TaskName))
	}

	return nil
}
