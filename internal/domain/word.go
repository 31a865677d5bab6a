package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Word
var (
	ErrEmptyWordID      = errors.New("word ID cannot be empty")
	ErrEmptyHeadword    = errors.New("Polish headword cannot be empty")
	ErrEmptyTranslation = errors.New("word must have at least one translation")
)

// Word is a single vocabulary item from the curated Polish course catalog.
// Translations are provided for both Ukrainian and Russian speakers; at
// least one must be present.
type Word struct {
	ID            uuid.UUID `json:"id"`
	Polish        string    `json:"polish"`
	TranslationUK string    `json:"translation_uk"`
	TranslationRU string    `json:"translation_ru"`
	ExamplePL     string    `json:"example_pl,omitempty"` // Example sentence in Polish
	Level         Level     `json:"level"`
	Category      string    `json:"category,omitempty"` // e.g. "food", "transport"
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewWord creates a catalog entry for the given headword and translations.
// Returns an error if validation fails.
func NewWord(polish, translationUK, translationRU string, level Level) (*Word, error) {
	now := time.Now().UTC()
	word := &Word{
		ID:            uuid.New(),
		Polish:        polish,
		TranslationUK: translationUK,
		TranslationRU: translationRU,
		Level:         level,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}

	return word, nil
}

// Validate checks if the Word has valid data.
// Returns an error if any field fails validation.
func (w *Word) Validate() error {
	if w.ID == uuid.Nil {
		return ErrEmptyWordID
	}

	if w.Polish == "" {
		return ErrEmptyHeadword
	}

	if w.TranslationUK == "" && w.TranslationRU == "" {
		return ErrEmptyTranslation
	}

	if !w.Level.Valid() {
		return ErrInvalidLevel
	}

	return nil
}
