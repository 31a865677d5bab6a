package review

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/domain/srs"
	"github.com/slowka/slowka-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes -------------------------------------------------------

type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	c := *user
	f.users[user.ID] = &c
	return nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

type fakeWordStore struct {
	words map[uuid.UUID]*domain.Word
}

func (f *fakeWordStore) Create(ctx context.Context, word *domain.Word) error {
	f.words[word.ID] = word
	return nil
}

func (f *fakeWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	word, ok := f.words[id]
	if !ok {
		return nil, store.ErrWordNotFound
	}
	return word, nil
}

func (f *fakeWordStore) List(ctx context.Context, filter store.WordFilter) ([]*domain.Word, error) {
	var out []*domain.Word
	for _, w := range f.words {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWordStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Word, error) {
	out := make(map[uuid.UUID]*domain.Word)
	for _, id := range ids {
		if w, ok := f.words[id]; ok {
			out[id] = w
		}
	}
	return out, nil
}

func (f *fakeWordStore) WithTx(tx *sql.Tx) store.WordStore { return f }

type stateKey struct{ user, word uuid.UUID }

type fakeStateStore struct {
	states map[stateKey]*domain.ReviewState
}

func (f *fakeStateStore) Create(ctx context.Context, state *domain.ReviewState) error {
	key := stateKey{state.UserID, state.WordID}
	if _, ok := f.states[key]; ok {
		return store.ErrWordEnrolled
	}
	f.states[key] = state.Clone()
	return nil
}

func (f *fakeStateStore) Get(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error) {
	state, ok := f.states[stateKey{userID, wordID}]
	if !ok {
		return nil, store.ErrReviewStateNotFound
	}
	return state.Clone(), nil
}

func (f *fakeStateStore) GetForUpdate(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error) {
	return f.Get(ctx, userID, wordID)
}

func (f *fakeStateStore) Update(ctx context.Context, state *domain.ReviewState) error {
	key := stateKey{state.UserID, state.WordID}
	if _, ok := f.states[key]; !ok {
		return store.ErrReviewStateNotFound
	}
	f.states[key] = state.Clone()
	return nil
}

func (f *fakeStateStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewState, error) {
	var due []*domain.ReviewState
	for _, st := range f.states {
		if st.UserID == userID && st.Due(now) {
			due = append(due, st.Clone())
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeStateStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewState, error) {
	var out []*domain.ReviewState
	for _, st := range f.states {
		if st.UserID == userID {
			out = append(out, st.Clone())
		}
	}
	return out, nil
}

func (f *fakeStateStore) UsersWithDue(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int)
	for _, st := range f.states {
		if st.Due(now) {
			out[st.UserID]++
		}
	}
	return out, nil
}

func (f *fakeStateStore) WithTx(tx *sql.Tx) store.ReviewStateStore { return f }

type fakeSessionStore struct {
	sessions map[uuid.UUID]*store.ReviewSession
}

func (f *fakeSessionStore) Save(ctx context.Context, session *store.ReviewSession, ttl time.Duration) error {
	f.sessions[session.UserID] = session
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, userID uuid.UUID) (*store.ReviewSession, error) {
	session, ok := f.sessions[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	delete(f.sessions, userID)
	return nil
}

// --- fixture ---------------------------------------------------------------

type fixture struct {
	svc      *serviceImpl
	users    *fakeUserStore
	words    *fakeWordStore
	states   *fakeStateStore
	sessions *fakeSessionStore
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:    &fakeUserStore{users: make(map[uuid.UUID]*domain.User)},
		words:    &fakeWordStore{words: make(map[uuid.UUID]*domain.Word)},
		states:   &fakeStateStore{states: make(map[stateKey]*domain.ReviewState)},
		sessions: &fakeSessionStore{sessions: make(map[uuid.UUID]*store.ReviewSession)},
		now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	f.svc = &serviceImpl{
		userStore:  f.users,
		wordStore:  f.words,
		stateStore: f.states,
		sessions:   f.sessions,
		scheduler:  srs.NewDefaultScheduler(),
		queueLimit: 20,
		sessionTTL: time.Hour,
		logger:     slog.Default(),
		now:        func() time.Time { return f.now },
	}
	f.svc.runTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}

	return f
}

func (f *fixture) addUser(t *testing.T) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:             uuid.New(),
		Email:          "olena@example.com",
		HashedPassword: "not-a-real-hash",
		Level:          domain.LevelA1,
		LastActivityAt: f.now.AddDate(0, 0, -10),
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	f.users.users[user.ID] = user
	return user
}

func (f *fixture) addWord(t *testing.T, polish string) *domain.Word {
	t.Helper()
	word := &domain.Word{
		ID:            uuid.New(),
		Polish:        polish,
		TranslationUK: "переклад",
		Level:         domain.LevelA1,
		CreatedAt:     f.now,
		UpdatedAt:     f.now,
	}
	f.words.words[word.ID] = word
	return word
}

func (f *fixture) addState(t *testing.T, userID, wordID uuid.UUID, mutate func(*domain.ReviewState)) *domain.ReviewState {
	t.Helper()
	state, err := domain.NewReviewState(userID, wordID, f.now)
	require.NoError(t, err)
	if mutate != nil {
		mutate(state)
	}
	f.states.states[stateKey{userID, wordID}] = state
	return state
}

// --- tests -----------------------------------------------------------------

func TestSubmitReviewReschedules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "książka")

	f.addState(t, user.ID, word.ID, func(st *domain.ReviewState) {
		st.Easiness = 2.5
		st.IntervalDays = 6
		st.Repetitions = 2
		st.DueAt = f.now.AddDate(0, 0, -1)
	})

	updated, err := f.svc.SubmitReview(ctx, user.ID, word.ID, 5)
	require.NoError(t, err)

	// Third consecutive pass: interval grows by the updated easiness factor.
	assert.Equal(t, 3, updated.Repetitions)
	assert.Equal(t, 16, updated.IntervalDays)
	assert.Equal(t, f.now.AddDate(0, 0, 16), updated.DueAt)
	assert.InDelta(t, 2.6, updated.Easiness, 0.0001)

	// The stored copy matches what was returned.
	stored, err := f.states.Get(ctx, user.ID, word.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.DueAt, stored.DueAt)
}

func TestSubmitReviewFailedRecallResets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "zeszyt")

	f.addState(t, user.ID, word.ID, func(st *domain.ReviewState) {
		st.IntervalDays = 30
		st.Repetitions = 4
		st.DueAt = f.now
	})

	updated, err := f.svc.SubmitReview(ctx, user.ID, word.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, updated.Repetitions)
	assert.Equal(t, 0, updated.IntervalDays)
	assert.Equal(t, f.now, updated.DueAt, "failed word should be due again immediately")
}

func TestSubmitReviewInvalidQuality(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "okno")
	before := f.addState(t, user.ID, word.ID, nil).Clone()

	for _, quality := range []int{-1, 6, 100} {
		updated, err := f.svc.SubmitReview(ctx, user.ID, word.ID, quality)
		assert.ErrorIs(t, err, srs.ErrInvalidQuality, "quality %d", quality)
		assert.Nil(t, updated)
	}

	// Nothing was written.
	stored, err := f.states.Get(ctx, user.ID, word.ID)
	require.NoError(t, err)
	assert.Equal(t, before, stored)
}

func TestSubmitReviewNotEnrolled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "drzwi")

	_, err := f.svc.SubmitReview(ctx, user.ID, word.ID, 4)
	assert.ErrorIs(t, err, ErrWordNotEnrolled)
}

func TestSubmitReviewStreak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "stół")
	f.addState(t, user.ID, word.ID, nil)

	// First review after a long gap starts the streak at 1.
	_, err := f.svc.SubmitReview(ctx, user.ID, word.ID, 4)
	require.NoError(t, err)
	stored, _ := f.users.GetByID(ctx, user.ID)
	assert.Equal(t, 1, stored.StreakDays)

	// A second review the same day changes nothing.
	_, err = f.svc.SubmitReview(ctx, user.ID, word.ID, 4)
	require.NoError(t, err)
	stored, _ = f.users.GetByID(ctx, user.ID)
	assert.Equal(t, 1, stored.StreakDays)

	// Reviewing the next day extends the streak.
	f.now = f.now.AddDate(0, 0, 1)
	_, err = f.svc.SubmitReview(ctx, user.ID, word.ID, 4)
	require.NoError(t, err)
	stored, _ = f.users.GetByID(ctx, user.ID)
	assert.Equal(t, 2, stored.StreakDays)

	// Skipping days resets the streak.
	f.now = f.now.AddDate(0, 0, 3)
	_, err = f.svc.SubmitReview(ctx, user.ID, word.ID, 4)
	require.NoError(t, err)
	stored, _ = f.users.GetByID(ctx, user.ID)
	assert.Equal(t, 1, stored.StreakDays)
}

func TestGetQueueOrdersAndTruncates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.queueLimit = 2
	user := f.addUser(t)

	oldest := f.addWord(t, "jabłko")
	middle := f.addWord(t, "gruszka")
	newest := f.addWord(t, "śliwka")
	future := f.addWord(t, "wiśnia")

	f.addState(t, user.ID, oldest.ID, func(st *domain.ReviewState) { st.DueAt = f.now.AddDate(0, 0, -3) })
	f.addState(t, user.ID, middle.ID, func(st *domain.ReviewState) { st.DueAt = f.now.AddDate(0, 0, -2) })
	f.addState(t, user.ID, newest.ID, func(st *domain.ReviewState) { st.DueAt = f.now.AddDate(0, 0, -1) })
	f.addState(t, user.ID, future.ID, func(st *domain.ReviewState) { st.DueAt = f.now.AddDate(0, 0, 5) })

	queue, err := f.svc.GetQueue(ctx, user.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, queue.TotalDue, "future word must not count as due")
	require.Len(t, queue.Items, 2)
	assert.Equal(t, oldest.ID, queue.Items[0].Word.ID, "longest-waiting word comes first")
	assert.Equal(t, middle.ID, queue.Items[1].Word.ID)

	// A session covering the queue was cached.
	session, err := f.sessions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{oldest.ID, middle.ID}, session.WordIDs)

	// A caller-supplied limit below the configured cap shrinks the batch; one
	// above it is clamped.
	queue, err = f.svc.GetQueue(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	assert.Equal(t, 3, queue.TotalDue)

	queue, err = f.svc.GetQueue(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Len(t, queue.Items, 2)
}

func TestGetQueueEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)

	queue, err := f.svc.GetQueue(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, queue.Items)
	assert.Zero(t, queue.TotalDue)

	_, err = f.sessions.Get(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "no session should be cached for an empty queue")
}

func TestEnrollWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "kot")

	state, err := f.svc.EnrollWord(ctx, user.ID, word.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageNew, state.Stage)
	assert.Equal(t, f.now, state.DueAt, "newly enrolled word is due immediately")
	assert.InDelta(t, domain.DefaultEasiness, state.Easiness, 0.0001)
}

func TestEnrollWordIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "pies")

	first, err := f.svc.EnrollWord(ctx, user.ID, word.ID)
	require.NoError(t, err)

	// Make the existing schedule distinguishable from a fresh one.
	_, err = f.svc.SubmitReview(ctx, user.ID, word.ID, 5)
	require.NoError(t, err)

	second, err := f.svc.EnrollWord(ctx, user.ID, word.ID)
	require.NoError(t, err)
	assert.Equal(t, first.WordID, second.WordID)
	assert.Equal(t, 1, second.Repetitions, "re-enrolling must not reset the schedule")
}

func TestEnrollWordMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)

	_, err := f.svc.EnrollWord(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrWordNotFound)
}

func TestPostponeWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)
	word := f.addWord(t, "mleko")

	f.addState(t, user.ID, word.ID, func(st *domain.ReviewState) {
		st.DueAt = f.now
		st.Repetitions = 2
		st.IntervalDays = 6
	})

	updated, err := f.svc.PostponeWord(ctx, user.ID, word.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(0, 0, 3), updated.DueAt)
	assert.Equal(t, 2, updated.Repetitions, "postpone must not touch repetitions")
	assert.Equal(t, 6, updated.IntervalDays, "postpone must not touch the interval")

	_, err = f.svc.PostponeWord(ctx, user.ID, word.ID, 0)
	assert.ErrorIs(t, err, srs.ErrInvalidDays)
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t)

	// One of each stage, two of them due.
	newWord := f.addWord(t, "a")
	learning := f.addWord(t, "b")
	reviewing := f.addWord(t, "c")
	mastered := f.addWord(t, "d")

	f.addState(t, user.ID, newWord.ID, nil)
	f.addState(t, user.ID, learning.ID, func(st *domain.ReviewState) {
		st.Stage = domain.StageLearning
		st.DueAt = f.now.AddDate(0, 0, 2)
		st.TimesReviewed = 1
	})
	f.addState(t, user.ID, reviewing.ID, func(st *domain.ReviewState) {
		st.Stage = domain.StageReview
		st.DueAt = f.now.AddDate(0, 0, -1)
		st.Repetitions = 3
		st.IntervalDays = 16
	})
	f.addState(t, user.ID, mastered.ID, func(st *domain.ReviewState) {
		st.Stage = domain.StageMastered
		st.DueAt = f.now.AddDate(0, 0, 80)
		st.Repetitions = 6
		st.IntervalDays = 120
	})

	summary, err := f.svc.Progress(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalWords)
	assert.Equal(t, 2, summary.DueNow)
	assert.Equal(t, 1, summary.New)
	assert.Equal(t, 1, summary.Learning)
	assert.Equal(t, 1, summary.Review)
	assert.Equal(t, 1, summary.Mastered)
}
