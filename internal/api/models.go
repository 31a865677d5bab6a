package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/service/review"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SubmitReviewRequest defines the payload for recording a review answer.
// Quality is a pointer so that an absent field can be told apart from a
// legitimate rating of 0.
type SubmitReviewRequest struct {
	Quality *int `json:"quality" validate:"required"`
}

// PostponeRequest defines the payload for postponing a word's next review.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1"`
}

// CreateWordRequest defines the payload for adding a word to the catalog.
type CreateWordRequest struct {
	Polish        string `json:"polish"         validate:"required"`
	TranslationUK string `json:"translation_uk"`
	TranslationRU string `json:"translation_ru"`
	ExamplePL     string `json:"example_pl"`
	Level         string `json:"level"          validate:"required,oneof=A1 A2 B1"`
	Category      string `json:"category"`
}

// ReviewStateResponse is the API shape of a review schedule.
type ReviewStateResponse struct {
	WordID       uuid.UUID `json:"word_id"`
	Easiness     float64   `json:"easiness"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	DueAt        time.Time `json:"due_at"`
	Stage        string    `json:"stage"`
	TimesCorrect int       `json:"times_correct"`
	TimesWrong   int       `json:"times_wrong"`
}

// newReviewStateResponse maps a domain state onto the API shape.
func newReviewStateResponse(state *domain.ReviewState) ReviewStateResponse {
	return ReviewStateResponse{
		WordID:       state.WordID,
		Easiness:     state.Easiness,
		IntervalDays: state.IntervalDays,
		Repetitions:  state.Repetitions,
		DueAt:        state.DueAt,
		Stage:        string(state.Stage),
		TimesCorrect: state.TimesCorrect,
		TimesWrong:   state.TimesWrong,
	}
}

// QueueItemResponse pairs a word with its schedule in a review queue.
type QueueItemResponse struct {
	Word  *domain.Word        `json:"word"`
	State ReviewStateResponse `json:"state"`
}

// QueueResponse is the API shape of a review queue.
type QueueResponse struct {
	Items    []QueueItemResponse `json:"items"`
	TotalDue int                 `json:"total_due"`
}

// newQueueResponse maps a service queue onto the API shape.
func newQueueResponse(queue *review.Queue) QueueResponse {
	resp := QueueResponse{
		Items:    make([]QueueItemResponse, 0, len(queue.Items)),
		TotalDue: queue.TotalDue,
	}
	for _, item := range queue.Items {
		resp.Items = append(resp.Items, QueueItemResponse{
			Word:  item.Word,
			State: newReviewStateResponse(item.State),
		})
	}
	return resp
}
