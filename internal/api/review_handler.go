package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/service/review"
)

// ReviewHandler handles the review workflow endpoints.
type ReviewHandler struct {
	reviewService review.Service
	validator     *validator.Validate
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.Service, log *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
		logger:        log.With(slog.String("component", "review_handler")),
	}
}

// GetQueue handles GET /reviews/queue.
// It returns the authenticated learner's due words, longest-waiting first.
// An optional limit query parameter shrinks the batch below the configured
// maximum. An empty queue is a successful response with an empty items array.
func (h *ReviewHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	queue, err := h.reviewService.GetQueue(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newQueueResponse(queue))
}

// SubmitReview handles POST /words/{wordID}/review.
// The body carries the 0-5 quality rating; out-of-range ratings yield 422
// and leave the schedule untouched.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, wordID, ok := requireUserAndPathUUID(w, r, "wordID")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	state, err := h.reviewService.SubmitReview(r.Context(), userID, wordID, *req.Quality)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newReviewStateResponse(state))
}

// EnrollWord handles POST /words/{wordID}/enroll.
// Enrolling the same word twice returns the existing schedule with 200
// instead of 201.
func (h *ReviewHandler) EnrollWord(w http.ResponseWriter, r *http.Request) {
	userID, wordID, ok := requireUserAndPathUUID(w, r, "wordID")
	if !ok {
		return
	}

	state, err := h.reviewService.EnrollWord(r.Context(), userID, wordID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status := http.StatusCreated
	if state.TimesReviewed > 0 || !state.CreatedAt.Equal(state.UpdatedAt) {
		status = http.StatusOK
	}
	RespondWithJSON(w, r, status, newReviewStateResponse(state))
}

// Postpone handles POST /words/{wordID}/postpone.
func (h *ReviewHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	userID, wordID, ok := requireUserAndPathUUID(w, r, "wordID")
	if !ok {
		return
	}

	var req PostponeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	state, err := h.reviewService.PostponeWord(r.Context(), userID, wordID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newReviewStateResponse(state))
}

// GetProgress handles GET /progress.
func (h *ReviewHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	summary, err := h.reviewService.Progress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, summary)
}
