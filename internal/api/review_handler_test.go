package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/api/shared"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/domain/srs"
	"github.com/slowka/slowka-api/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReviewService implements review.Service with injectable behavior.
type mockReviewService struct {
	getQueueFn     func(ctx context.Context, userID uuid.UUID, limit int) (*review.Queue, error)
	submitReviewFn func(ctx context.Context, userID, wordID uuid.UUID, quality int) (*domain.ReviewState, error)
	enrollWordFn   func(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error)
	postponeWordFn func(ctx context.Context, userID, wordID uuid.UUID, days int) (*domain.ReviewState, error)
	progressFn     func(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error)
}

func (m *mockReviewService) GetQueue(ctx context.Context, userID uuid.UUID, limit int) (*review.Queue, error) {
	return m.getQueueFn(ctx, userID, limit)
}

func (m *mockReviewService) SubmitReview(ctx context.Context, userID, wordID uuid.UUID, quality int) (*domain.ReviewState, error) {
	return m.submitReviewFn(ctx, userID, wordID, quality)
}

func (m *mockReviewService) EnrollWord(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error) {
	return m.enrollWordFn(ctx, userID, wordID)
}

func (m *mockReviewService) PostponeWord(ctx context.Context, userID, wordID uuid.UUID, days int) (*domain.ReviewState, error) {
	return m.postponeWordFn(ctx, userID, wordID, days)
}

func (m *mockReviewService) Progress(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	return m.progressFn(ctx, userID)
}

// newReviewRouter wires the handler into a chi router the way the server does.
func newReviewRouter(svc review.Service) chi.Router {
	h := NewReviewHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/reviews/queue", h.GetQueue)
	r.Get("/progress", h.GetProgress)
	r.Post("/words/{wordID}/review", h.SubmitReview)
	r.Post("/words/{wordID}/enroll", h.EnrollWord)
	r.Post("/words/{wordID}/postpone", h.Postpone)
	return r
}

// authedRequest builds a request carrying an authenticated user ID.
func authedRequest(method, target string, userID uuid.UUID, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

func sampleState(userID, wordID uuid.UUID) *domain.ReviewState {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &domain.ReviewState{
		UserID:       userID,
		WordID:       wordID,
		Easiness:     2.6,
		IntervalDays: 16,
		Repetitions:  3,
		DueAt:        now.AddDate(0, 0, 16),
		Stage:        domain.StageReview,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSubmitReviewEndpoint(t *testing.T) {
	userID := uuid.New()
	wordID := uuid.New()

	svc := &mockReviewService{
		submitReviewFn: func(ctx context.Context, gotUser, gotWord uuid.UUID, quality int) (*domain.ReviewState, error) {
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, wordID, gotWord)
			assert.Equal(t, 5, quality)
			return sampleState(gotUser, gotWord), nil
		},
	}
	router := newReviewRouter(svc)

	quality := 5
	req := authedRequest(http.MethodPost, "/words/"+wordID.String()+"/review", userID,
		SubmitReviewRequest{Quality: &quality})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReviewStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, wordID, resp.WordID)
	assert.Equal(t, 16, resp.IntervalDays)
	assert.Equal(t, "review", resp.Stage)
}

func TestSubmitReviewEndpointInvalidQuality(t *testing.T) {
	userID := uuid.New()
	wordID := uuid.New()

	svc := &mockReviewService{
		submitReviewFn: func(ctx context.Context, _, _ uuid.UUID, quality int) (*domain.ReviewState, error) {
			return nil, fmt.Errorf("%w: got %d", srs.ErrInvalidQuality, quality)
		},
	}
	router := newReviewRouter(svc)

	quality := 9
	req := authedRequest(http.MethodPost, "/words/"+wordID.String()+"/review", userID,
		SubmitReviewRequest{Quality: &quality})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Quality rating must be between 0 and 5", resp.Error)
}

func TestSubmitReviewEndpointMissingQuality(t *testing.T) {
	router := newReviewRouter(&mockReviewService{})

	req := authedRequest(http.MethodPost, "/words/"+uuid.New().String()+"/review", uuid.New(),
		map[string]string{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReviewEndpointNotEnrolled(t *testing.T) {
	svc := &mockReviewService{
		submitReviewFn: func(ctx context.Context, _, _ uuid.UUID, _ int) (*domain.ReviewState, error) {
			return nil, review.ErrWordNotEnrolled
		},
	}
	router := newReviewRouter(svc)

	quality := 4
	req := authedRequest(http.MethodPost, "/words/"+uuid.New().String()+"/review", uuid.New(),
		SubmitReviewRequest{Quality: &quality})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitReviewEndpointBadWordID(t *testing.T) {
	router := newReviewRouter(&mockReviewService{})

	quality := 4
	req := authedRequest(http.MethodPost, "/words/not-a-uuid/review", uuid.New(),
		SubmitReviewRequest{Quality: &quality})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReviewEndpointUnauthenticated(t *testing.T) {
	router := newReviewRouter(&mockReviewService{})

	quality := 4
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(SubmitReviewRequest{Quality: &quality})
	req := httptest.NewRequest(http.MethodPost, "/words/"+uuid.New().String()+"/review", &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetQueueEndpoint(t *testing.T) {
	userID := uuid.New()
	wordID := uuid.New()

	svc := &mockReviewService{
		getQueueFn: func(ctx context.Context, gotUser uuid.UUID, limit int) (*review.Queue, error) {
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, 3, limit)
			return &review.Queue{
				Items: []review.QueueItem{{
					Word: &domain.Word{
						ID:            wordID,
						Polish:        "książka",
						TranslationUK: "книга",
						Level:         domain.LevelA1,
					},
					State: sampleState(userID, wordID),
				}},
				TotalDue: 5,
			}, nil
		},
	}
	router := newReviewRouter(svc)

	req := authedRequest(http.MethodGet, "/reviews/queue?limit=3", userID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.TotalDue)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "książka", resp.Items[0].Word.Polish)
}

func TestGetQueueEndpointEmpty(t *testing.T) {
	svc := &mockReviewService{
		getQueueFn: func(ctx context.Context, _ uuid.UUID, _ int) (*review.Queue, error) {
			return &review.Queue{Items: []review.QueueItem{}}, nil
		},
	}
	router := newReviewRouter(svc)

	req := authedRequest(http.MethodGet, "/reviews/queue", uuid.New(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.TotalDue)
}

func TestGetQueueEndpointInvalidLimit(t *testing.T) {
	router := newReviewRouter(&mockReviewService{})

	for _, limit := range []string{"abc", "0", "-1"} {
		req := authedRequest(http.MethodGet, "/reviews/queue?limit="+limit, uuid.New(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestEnrollEndpoint(t *testing.T) {
	userID := uuid.New()
	wordID := uuid.New()
	now := time.Now().UTC()

	svc := &mockReviewService{
		enrollWordFn: func(ctx context.Context, gotUser, gotWord uuid.UUID) (*domain.ReviewState, error) {
			state, err := domain.NewReviewState(gotUser, gotWord, now)
			require.NoError(t, err)
			return state, nil
		},
	}
	router := newReviewRouter(svc)

	req := authedRequest(http.MethodPost, "/words/"+wordID.String()+"/enroll", userID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEnrollEndpointMissingWord(t *testing.T) {
	svc := &mockReviewService{
		enrollWordFn: func(ctx context.Context, _, _ uuid.UUID) (*domain.ReviewState, error) {
			return nil, review.ErrWordNotFound
		},
	}
	router := newReviewRouter(svc)

	req := authedRequest(http.MethodPost, "/words/"+uuid.New().String()+"/enroll", uuid.New(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostponeEndpointRejectsZeroDays(t *testing.T) {
	router := newReviewRouter(&mockReviewService{})

	req := authedRequest(http.MethodPost, "/words/"+uuid.New().String()+"/postpone", uuid.New(),
		PostponeRequest{Days: 0})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressEndpoint(t *testing.T) {
	svc := &mockReviewService{
		progressFn: func(ctx context.Context, _ uuid.UUID) (*domain.ProgressSummary, error) {
			return &domain.ProgressSummary{
				TotalWords: 42,
				DueNow:     7,
				New:        10,
				Learning:   12,
				Review:     15,
				Mastered:   5,
			}, nil
		},
	}
	router := newReviewRouter(svc)

	req := authedRequest(http.MethodGet, "/progress", uuid.New(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.ProgressSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.TotalWords)
	assert.Equal(t, 7, resp.DueNow)
}
