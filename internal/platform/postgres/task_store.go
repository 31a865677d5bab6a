package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/store"
	"github.com/slowka/slowka-api/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL.
// Persisted tasks are revived into executable form through the factory.
type PostgresTaskStore struct {
	db      store.DBTX
	factory task.Factory
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX, factory task.Factory) *PostgresTaskStore {
	if db == nil {
		panic("db must not be nil")
	}
	if factory == nil {
		panic("factory must not be nil")
	}
	return &PostgresTaskStore{
		db:      db,
		factory: factory,
	}
}

// WithTx implements task.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db:      tx,
		factory: s.factory,
	}
}

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)

	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database
func (s *PostgresTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status task.TaskStatus, errorMsg string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)

	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status",
			"task_id", taskID)
		return nil // Task not found, treat as no-op
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// getTasksByStatus loads tasks by status, optionally filtered to those not
// touched for olderThan, and revives them through the factory.
func (s *PostgresTaskStore) getTasksByStatus(ctx context.Context, status task.TaskStatus, olderThan time.Duration) ([]task.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, type, payload, status
		FROM tasks
		WHERE status = $1
	`
	args := []interface{}{status}

	if olderThan > 0 {
		args = append(args, time.Now().UTC().Add(-olderThan))
		query += " AND updated_at < $2"
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task

	for rows.Next() {
		var id uuid.UUID
		var taskType string
		var payload []byte
		var taskStatus task.TaskStatus

		if err := rows.Scan(&id, &taskType, &payload, &taskStatus); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		t, err := s.factory.Revive(id, taskType, payload, taskStatus)
		if err != nil {
			// An unrevivable task (unknown type, corrupt payload) is logged
			// and skipped rather than blocking recovery of the rest.
			log.Error("failed to revive task",
				"task_id", id,
				"task_type", taskType,
				"error", err)
			continue
		}

		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}
