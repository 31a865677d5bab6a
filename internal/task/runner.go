package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can sit in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing: it persists submitted tasks,
// fans them out to a worker pool, and recovers unfinished work on restart.
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultTaskRunnerConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}
	if config.StuckTaskAge <= 0 {
		config.StuckTaskAge = DefaultTaskRunnerConfig().StuckTaskAge
	}
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "task_runner")),
	}
}

// Submit persists a new task and queues it for processing. The database
// write happens first so the task survives a crash before a worker picks
// it up.
func (r *TaskRunner) Submit(ctx context.Context, t Task) error {
	if err := r.store.SaveTask(ctx, t); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- t:
		return nil
	default:
		// The task stays pending in the database and will be picked up by
		// the next recovery pass.
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start recovers unfinished tasks and launches the worker pool.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner, waiting for in-flight tasks.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// Recover requeues tasks left pending or processing by a previous run.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Tasks stuck in "processing" were interrupted mid-run; reset them.
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, t := range pendingTasks {
		r.requeue(t)
	}

	for _, t := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
			continue
		}
		r.requeue(t)
	}

	return nil
}

// requeue places a task back on the in-memory queue, logging when full.
func (r *TaskRunner) requeue(t Task) {
	select {
	case r.taskChan <- t:
	default:
		r.logger.Error("failed to requeue task, queue is full",
			"task_id", t.ID(),
			"task_type", t.Type())
	}
}

// worker processes tasks from the queue until the runner stops.
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case t, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(t, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(t Task, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		"task_id", t.ID(),
		"task_type", t.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", "error", err)
		return
	}

	log.Info("processing task")

	if err := t.Execute(ctx); err != nil {
		log.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		return
	}

	log.Info("task completed successfully")
	if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusCompleted, ""); err != nil {
		log.Error("failed to update task status to completed", "error", err)
	}
}

// stuckTaskMonitor periodically resets tasks that have been in "processing"
// state longer than the configured age and requeues them.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}
			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, t := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", t.ID(),
						"task_type", t.Type(),
						"error", err)
					continue
				}
				r.requeue(t)
			}
		}
	}
}
