package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/store"
)

// maxWordPageSize caps catalog pages regardless of the requested limit.
const maxWordPageSize = 100

// WordHandler handles vocabulary catalog endpoints.
type WordHandler struct {
	wordStore store.WordStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewWordHandler creates a new WordHandler.
func NewWordHandler(wordStore store.WordStore, log *slog.Logger) *WordHandler {
	if wordStore == nil {
		panic("wordStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &WordHandler{
		wordStore: wordStore,
		validator: validator.New(),
		logger:    log.With(slog.String("component", "word_handler")),
	}
}

// ListWords handles GET /words.
// Supported query parameters: level, category, limit, offset.
func (h *WordHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	filter := store.WordFilter{
		Level:    domain.Level(r.URL.Query().Get("level")),
		Category: r.URL.Query().Get("category"),
		Limit:    maxWordPageSize,
	}

	if filter.Level != "" && !filter.Level.Valid() {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid level")
		return
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		if limit < maxWordPageSize {
			filter.Limit = limit
		}
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	words, err := h.wordStore.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list words")
		return
	}

	if words == nil {
		words = []*domain.Word{}
	}
	RespondWithJSON(w, r, http.StatusOK, words)
}

// GetWord handles GET /words/{wordID}.
func (h *WordHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	wordID, err := getPathUUID(r, "wordID")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid wordID")
		return
	}

	word, err := h.wordStore.GetByID(r.Context(), wordID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, word)
}

// CreateWord handles POST /words, adding a word to the shared catalog.
func (h *WordHandler) CreateWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateWordRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	word, err := domain.NewWord(req.Polish, req.TranslationUK, req.TranslationRU, domain.Level(req.Level))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid word data")
		return
	}
	word.ExamplePL = req.ExamplePL
	word.Category = req.Category

	if err := h.wordStore.Create(r.Context(), word); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("word created", "word_id", word.ID, "polish", word.Polish)
	RespondWithJSON(w, r, http.StatusCreated, word)
}
