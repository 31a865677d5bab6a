package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTask is a minimal Task whose Execute behavior is injectable.
type testTask struct {
	id      uuid.UUID
	status  TaskStatus
	execErr error
	runs    atomic.Int32
}

func newTestTask() *testTask {
	return &testTask{id: uuid.New(), status: TaskStatusPending}
}

func (t *testTask) ID() uuid.UUID      { return t.id }
func (t *testTask) Type() string       { return "test_task" }
func (t *testTask) Payload() []byte    { return []byte(`{}`) }
func (t *testTask) Status() TaskStatus { return t.status }

func (t *testTask) Execute(ctx context.Context) error {
	t.runs.Add(1)
	return t.execErr
}

// waitForStatus polls the store until the task reaches the wanted status.
func waitForStatus(t *testing.T, s *memTaskStore, id uuid.UUID, want TaskStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.status(id) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %q (got %q)", id, want, s.status(id))
}

func TestSubmitPersistsBeforeQueueing(t *testing.T) {
	store := newMemTaskStore()
	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), nil)

	task := newTestTask()
	require.NoError(t, runner.Submit(context.Background(), task))

	// Persisted even though no worker has started.
	assert.Equal(t, 1, store.count())
	assert.Equal(t, TaskStatusPending, store.status(task.ID()))
	assert.Len(t, runner.taskChan, 1)
}

func TestSubmitFullQueueKeepsTaskPending(t *testing.T) {
	store := newMemTaskStore()
	cfg := DefaultTaskRunnerConfig()
	cfg.QueueSize = 1
	runner := NewTaskRunner(store, cfg, nil)

	require.NoError(t, runner.Submit(context.Background(), newTestTask()))

	overflow := newTestTask()
	err := runner.Submit(context.Background(), overflow)
	require.Error(t, err)

	// The overflow task is persisted as pending so recovery can pick it up.
	assert.Equal(t, 2, store.count())
	assert.Equal(t, TaskStatusPending, store.status(overflow.ID()))
}

func TestRunnerProcessesSubmittedTask(t *testing.T) {
	store := newMemTaskStore()
	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newTestTask()
	require.NoError(t, runner.Submit(context.Background(), task))

	waitForStatus(t, store, task.ID(), TaskStatusCompleted)
	assert.Equal(t, int32(1), task.runs.Load())
}

func TestRunnerMarksFailedTask(t *testing.T) {
	store := newMemTaskStore()
	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newTestTask()
	task.execErr = errors.New("delivery channel down")
	require.NoError(t, runner.Submit(context.Background(), task))

	waitForStatus(t, store, task.ID(), TaskStatusFailed)
}

func TestRecoverRequeuesUnfinishedTasks(t *testing.T) {
	store := newMemTaskStore()

	pending := newTestTask()
	require.NoError(t, store.SaveTask(context.Background(), pending))

	interrupted := newTestTask()
	require.NoError(t, store.SaveTask(context.Background(), interrupted))
	require.NoError(t, store.UpdateTaskStatus(context.Background(), interrupted.ID(), TaskStatusProcessing, ""))

	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitForStatus(t, store, pending.ID(), TaskStatusCompleted)
	waitForStatus(t, store, interrupted.ID(), TaskStatusCompleted)
	assert.Equal(t, int32(1), pending.runs.Load())
	assert.Equal(t, int32(1), interrupted.runs.Load())
}
