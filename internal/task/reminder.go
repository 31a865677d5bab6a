package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/store"
)

// Notifier delivers a due-review reminder to a learner. The chat transport
// (Telegram, email, ...) lives behind this interface; the stock
// implementation just logs.
type Notifier interface {
	NotifyDueReviews(ctx context.Context, user *domain.User, dueCount int) error
}

// LogNotifier is the stock Notifier that records reminders in the log
// instead of delivering them anywhere.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// NotifyDueReviews implements Notifier.
func (n *LogNotifier) NotifyDueReviews(ctx context.Context, user *domain.User, dueCount int) error {
	n.logger.Info("review reminder",
		"user_id", user.ID,
		"email", user.Email,
		"due_count", dueCount,
		"streak_days", user.StreakDays)
	return nil
}

// reminderPayload is the persisted form of a review reminder task.
type reminderPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	DueCount int       `json:"due_count"`
}

// ReviewReminderTask notifies one learner about their due words.
type ReviewReminderTask struct {
	id       uuid.UUID
	userID   uuid.UUID
	dueCount int
	status   TaskStatus

	userStore store.UserStore
	notifier  Notifier
}

var _ Task = (*ReviewReminderTask)(nil)

// ID implements Task.ID
func (t *ReviewReminderTask) ID() uuid.UUID { return t.id }

// Type implements Task.Type
func (t *ReviewReminderTask) Type() string { return TaskTypeReviewReminder }

// Status implements Task.Status
func (t *ReviewReminderTask) Status() TaskStatus { return t.status }

// Payload implements Task.Payload
func (t *ReviewReminderTask) Payload() []byte {
	data, err := json.Marshal(reminderPayload{
		UserID:   t.userID,
		DueCount: t.dueCount,
	})
	if err != nil {
		// A struct of two plain fields cannot fail to marshal.
		return nil
	}
	return data
}

// Execute implements Task.Execute. The user is loaded fresh so a reminder
// never goes out for a deleted account.
func (t *ReviewReminderTask) Execute(ctx context.Context) error {
	user, err := t.userStore.GetByID(ctx, t.userID)
	if err != nil {
		return fmt.Errorf("failed to load user for reminder: %w", err)
	}

	if err := t.notifier.NotifyDueReviews(ctx, user, t.dueCount); err != nil {
		return fmt.Errorf("failed to deliver reminder: %w", err)
	}

	return nil
}

// ReminderTaskFactory builds review reminder tasks, both fresh and revived
// from the task store.
type ReminderTaskFactory struct {
	userStore store.UserStore
	notifier  Notifier
}

var _ Factory = (*ReminderTaskFactory)(nil)

// NewReminderTaskFactory creates a ReminderTaskFactory.
func NewReminderTaskFactory(userStore store.UserStore, notifier Notifier) *ReminderTaskFactory {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	return &ReminderTaskFactory{
		userStore: userStore,
		notifier:  notifier,
	}
}

// NewTask creates a fresh pending reminder task for the given learner.
func (f *ReminderTaskFactory) NewTask(userID uuid.UUID, dueCount int) *ReviewReminderTask {
	return &ReviewReminderTask{
		id:        uuid.New(),
		userID:    userID,
		dueCount:  dueCount,
		status:    TaskStatusPending,
		userStore: f.userStore,
		notifier:  f.notifier,
	}
}

// Revive implements Factory.Revive.
func (f *ReminderTaskFactory) Revive(id uuid.UUID, taskType string, payload []byte, status TaskStatus) (Task, error) {
	if taskType != TaskTypeReviewReminder {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	var p reminderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reminder payload: %w", err)
	}

	return &ReviewReminderTask{
		id:        id,
		userID:    p.UserID,
		dueCount:  p.DueCount,
		status:    status,
		userStore: f.userStore,
		notifier:  f.notifier,
	}, nil
}

// ReminderScanner periodically finds learners with due words and submits a
// reminder task per learner.
type ReminderScanner struct {
	states   store.ReviewStateStore
	factory  *ReminderTaskFactory
	runner   *TaskRunner
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReminderScanner creates a ReminderScanner.
func NewReminderScanner(
	states store.ReviewStateStore,
	factory *ReminderTaskFactory,
	runner *TaskRunner,
	interval time.Duration,
	logger *slog.Logger,
) *ReminderScanner {
	if states == nil {
		panic("states cannot be nil")
	}
	if factory == nil {
		panic("factory cannot be nil")
	}
	if runner == nil {
		panic("runner cannot be nil")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReminderScanner{
		states:   states,
		factory:  factory,
		runner:   runner,
		interval: interval,
		logger:   logger.With(slog.String("component", "reminder_scanner")),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic scan loop.
func (s *ReminderScanner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Scan(ctx)
			}
		}
	}()
}

// Stop halts the scan loop and waits for it to exit.
func (s *ReminderScanner) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Scan runs one reminder pass: every learner with at least one due word
// gets a reminder task submitted. Per-learner failures are logged and do
// not stop the pass.
func (s *ReminderScanner) Scan(ctx context.Context) {
	now := time.Now().UTC()

	dueByUser, err := s.states.UsersWithDue(ctx, now)
	if err != nil {
		s.logger.Error("reminder scan failed", "error", err)
		return
	}

	if len(dueByUser) == 0 {
		s.logger.Debug("reminder scan found no due reviews")
		return
	}

	submitted := 0
	for userID, count := range dueByUser {
		t := s.factory.NewTask(userID, count)
		if err := s.runner.Submit(ctx, t); err != nil {
			s.logger.Error("failed to submit reminder task",
				"user_id", userID,
				"due_count", count,
				"error", err)
			continue
		}
		submitted++
	}

	s.logger.Info("reminder scan complete",
		"users_with_due", len(dueByUser),
		"tasks_submitted", submitted)
}
