package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/domain/srs"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	db         *sql.DB
	runTx      func(ctx context.Context, fn store.TxFn) error
	userStore  store.UserStore
	wordStore  store.WordStore
	stateStore store.ReviewStateStore
	sessions   store.SessionStore
	scheduler  srs.Scheduler
	queueLimit int
	sessionTTL time.Duration
	logger     *slog.Logger
	now        timeSource
}

// NewService creates a new review Service implementation.
func NewService(
	db *sql.DB,
	userStore store.UserStore,
	wordStore store.WordStore,
	stateStore store.ReviewStateStore,
	sessions store.SessionStore,
	scheduler srs.Scheduler,
	queueLimit int,
	sessionTTL time.Duration,
	log *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if wordStore == nil {
		panic("wordStore cannot be nil")
	}
	if stateStore == nil {
		panic("stateStore cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if queueLimit <= 0 {
		queueLimit = 20
	}
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}

	svc := &serviceImpl{
		db:         db,
		userStore:  userStore,
		wordStore:  wordStore,
		stateStore: stateStore,
		sessions:   sessions,
		scheduler:  scheduler,
		queueLimit: queueLimit,
		sessionTTL: sessionTTL,
		logger:     log.With(slog.String("component", "review_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}
	svc.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, svc.db, fn)
	}
	return svc
}

// GetQueue implements Service.GetQueue.
func (s *serviceImpl) GetQueue(ctx context.Context, userID uuid.UUID, limit int) (*Queue, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	if limit <= 0 || limit > s.queueLimit {
		limit = s.queueLimit
	}

	due, err := s.stateStore.ListDue(ctx, userID, now, 0)
	if err != nil {
		log.Error("failed to list due words",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "get_queue", Message: "failed to list due words", Err: err}
	}

	totalDue := len(due)
	if totalDue > limit {
		due = due[:limit]
	}

	queue := &Queue{Items: []QueueItem{}, TotalDue: totalDue}
	if len(due) == 0 {
		log.Debug("no words due", slog.String("user_id", userID.String()))
		return queue, nil
	}

	wordIDs := lo.Map(due, func(st *domain.ReviewState, _ int) uuid.UUID {
		return st.WordID
	})

	words, err := s.wordStore.GetByIDs(ctx, wordIDs)
	if err != nil {
		return nil, &ServiceError{Operation: "get_queue", Message: "failed to load words", Err: err}
	}

	// Preserve the due ordering from the store. A schedule whose word has
	// vanished from the catalog is skipped rather than failing the queue.
	for _, st := range due {
		word, ok := words[st.WordID]
		if !ok {
			log.Warn("review state references missing word",
				slog.String("user_id", userID.String()),
				slog.String("word_id", st.WordID.String()))
			continue
		}
		queue.Items = append(queue.Items, QueueItem{Word: word, State: st})
	}

	s.startSession(ctx, userID, queue, now)

	log.Debug("built review queue",
		slog.String("user_id", userID.String()),
		slog.Int("items", len(queue.Items)),
		slog.Int("total_due", totalDue))
	return queue, nil
}

// startSession caches a fresh session covering the queue. Session tracking is
// best effort; a cache outage must not break the review flow.
func (s *serviceImpl) startSession(ctx context.Context, userID uuid.UUID, queue *Queue, now time.Time) {
	if len(queue.Items) == 0 {
		return
	}

	session := &store.ReviewSession{
		UserID: userID,
		WordIDs: lo.Map(queue.Items, func(item QueueItem, _ int) uuid.UUID {
			return item.Word.ID
		}),
		StartedAt: now,
	}

	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to cache review session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}
}

// SubmitReview implements Service.SubmitReview.
func (s *serviceImpl) SubmitReview(
	ctx context.Context,
	userID, wordID uuid.UUID,
	quality int,
) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	// Reject out-of-range ratings before touching the database.
	if quality < srs.MinQuality || quality > srs.MaxQuality {
		log.Warn("invalid review quality",
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()),
			slog.Int("quality", quality))
		return nil, fmt.Errorf("%w: got %d", srs.ErrInvalidQuality, quality)
	}

	var updated *domain.ReviewState
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		states := s.stateStore.WithTx(tx)

		state, err := states.GetForUpdate(ctx, userID, wordID)
		if err != nil {
			if errors.Is(err, store.ErrReviewStateNotFound) {
				return ErrWordNotEnrolled
			}
			return fmt.Errorf("failed to load review state: %w", err)
		}

		updated, err = s.scheduler.RecordReview(state, quality, now)
		if err != nil {
			return err
		}

		if err := states.Update(ctx, updated); err != nil {
			return fmt.Errorf("failed to save review state: %w", err)
		}

		return s.touchStreak(ctx, s.userStore.WithTx(tx), userID, now)
	})
	if err != nil {
		if errors.Is(err, ErrWordNotEnrolled) || errors.Is(err, srs.ErrInvalidQuality) {
			return nil, err
		}
		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to record review", Err: err}
	}

	s.advanceSession(ctx, userID, quality)

	log.Debug("review recorded",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()),
		slog.Int("quality", quality),
		slog.Int("interval_days", updated.IntervalDays),
		slog.Time("due_at", updated.DueAt))
	return updated, nil
}

// touchStreak maintains the learner's daily streak: reviewing on consecutive
// calendar days extends it, a gap resets it to 1, and further reviews on the
// same day leave it alone.
func (s *serviceImpl) touchStreak(ctx context.Context, users store.UserStore, userID uuid.UUID, now time.Time) error {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user for streak update: %w", err)
	}

	today := now.Truncate(24 * time.Hour)
	lastDay := user.LastActivityAt.UTC().Truncate(24 * time.Hour)

	switch {
	case lastDay.Equal(today) && user.StreakDays > 0:
		// Already counted today.
		user.LastActivityAt = now
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		user.StreakDays++
		user.LastActivityAt = now
	default:
		user.StreakDays = 1
		user.LastActivityAt = now
	}

	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// advanceSession updates the cached session counters after an answer.
// Best effort: a missing or expired session is ignored.
func (s *serviceImpl) advanceSession(ctx context.Context, userID uuid.UUID, quality int) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return
	}

	session.Position++
	session.Answered++
	if quality >= srs.DefaultPassThreshold {
		session.Correct++
	}

	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to update review session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}
}

// EnrollWord implements Service.EnrollWord.
func (s *serviceImpl) EnrollWord(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	if _, err := s.wordStore.GetByID(ctx, wordID); err != nil {
		if errors.Is(err, store.ErrWordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, &ServiceError{Operation: "enroll_word", Message: "failed to load word", Err: err}
	}

	state, err := domain.NewReviewState(userID, wordID, now)
	if err != nil {
		return nil, &ServiceError{Operation: "enroll_word", Message: "invalid review state", Err: err}
	}

	if err := s.stateStore.Create(ctx, state); err != nil {
		if errors.Is(err, store.ErrWordEnrolled) {
			// Idempotent: hand back the schedule that already exists.
			existing, getErr := s.stateStore.Get(ctx, userID, wordID)
			if getErr != nil {
				return nil, &ServiceError{Operation: "enroll_word", Message: "failed to load existing state", Err: getErr}
			}
			log.Debug("word already enrolled",
				slog.String("user_id", userID.String()),
				slog.String("word_id", wordID.String()))
			return existing, nil
		}
		log.Error("failed to enroll word",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, &ServiceError{Operation: "enroll_word", Message: "failed to create review state", Err: err}
	}

	log.Info("word enrolled",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()))
	return state, nil
}

// PostponeWord implements Service.PostponeWord.
func (s *serviceImpl) PostponeWord(
	ctx context.Context,
	userID, wordID uuid.UUID,
	days int,
) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.ReviewState
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		states := s.stateStore.WithTx(tx)

		state, err := states.GetForUpdate(ctx, userID, wordID)
		if err != nil {
			if errors.Is(err, store.ErrReviewStateNotFound) {
				return ErrWordNotEnrolled
			}
			return fmt.Errorf("failed to load review state: %w", err)
		}

		updated, err = s.scheduler.Postpone(state, days, s.now())
		if err != nil {
			return err
		}

		if err := states.Update(ctx, updated); err != nil {
			return fmt.Errorf("failed to save review state: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrWordNotEnrolled) || errors.Is(err, srs.ErrInvalidDays) {
			return nil, err
		}
		log.Error("failed to postpone word",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, &ServiceError{Operation: "postpone_word", Message: "failed to postpone review", Err: err}
	}

	log.Debug("word postponed",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()),
		slog.Int("days", days))
	return updated, nil
}

// Progress implements Service.Progress.
func (s *serviceImpl) Progress(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	now := s.now()

	states, err := s.stateStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "progress", Message: "failed to list review states", Err: err}
	}

	byStage := lo.CountValuesBy(states, func(st *domain.ReviewState) domain.Stage {
		return st.Stage
	})

	return &domain.ProgressSummary{
		TotalWords: len(states),
		DueNow: lo.CountBy(states, func(st *domain.ReviewState) bool {
			return st.Due(now)
		}),
		New:      byStage[domain.StageNew],
		Learning: byStage[domain.StageLearning],
		Review:   byStage[domain.StageReview],
		Mastered: byStage[domain.StageMastered],
	}, nil
}
