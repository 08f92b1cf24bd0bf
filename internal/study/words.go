package study

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/engcards/internal/spaced_repetition"
	"github.com/example/engcards/pkg/models"
)

// ErrSessionFinished is returned when acting on a session with no current item
var ErrSessionFinished = errors.New("session finished")

// Reviewer records the outcome of one word review
type Reviewer interface {
	RecordReview(ctx context.Context, itemID string, wasCorrect bool) (models.Word, error)
}

// Card is the word currently shown to the learner
type Card struct {
	Word    models.Word
	Flipped bool
	// Hint is the example with the term blanked out
	Hint string
}

// WordSummary is shown when a word session ends
type WordSummary struct {
	Total int
	Known int
	Again int
}

// WordSession walks the learner through a flashcard deck
type WordSession struct {
	cards    []models.Word
	pos      int
	flipped  bool
	summary  WordSummary
	reviewer Reviewer
	speech   SpeechOutput
	voice    Voice
	silent   bool
	logger   *zap.Logger
}

// NewWordSession builds a deck from every non-mastered word plus a few mastered ones
func NewWordSession(words []models.Word, ladder *spaced_repetition.Ladder, reviewer Reviewer, speech SpeechOutput, voice Voice, logger *zap.Logger) *WordSession {
	if ladder == nil {
		ladder = spaced_repetition.NewLadder()
	}
	if speech == nil {
		speech = NopSpeech{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cards := ladder.SelectStudySet(words)
	return &WordSession{
		cards:    cards,
		summary:  WordSummary{Total: len(cards)},
		reviewer: reviewer,
		speech:   speech,
		voice:    voice,
		logger:   logger,
	}
}

// Current returns the card being shown
func (s *WordSession) Current() (Card, bool) {
	if s.Done() {
		return Card{}, false
	}
	w := s.cards[s.pos]
	card := Card{Word: w, Flipped: s.flipped}
	if w.Example != "" {
		card.Hint = Cloze(w.Example, w.Term)
	}
	return card, true
}

// Show reads the current term aloud. Missing speech support switches the session to silent mode.
func (s *WordSession) Show(ctx context.Context) error {
	card, ok := s.Current()
	if !ok {
		return ErrSessionFinished
	}
	if s.silent {
		return nil
	}
	err := s.speech.Speak(ctx, card.Word.Term, s.voice.Locale, s.voice.Rate)
	if errors.Is(err, models.ErrUnsupportedEnvironment) {
		s.logger.Debug("speech output unavailable, continuing silently")
		s.silent = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to speak term: %w", err)
	}
	return nil
}

// Silent reports whether speech output was found to be unavailable
func (s *WordSession) Silent() bool {
	return s.silent
}

// Flip reveals the definition of the current card
func (s *WordSession) Flip() {
	if !s.Done() {
		s.flipped = true
	}
}

// Answer records the learner's verdict on the current card and advances
func (s *WordSession) Answer(ctx context.Context, known bool) (models.Word, error) {
	card, ok := s.Current()
	if !ok {
		return models.Word{}, ErrSessionFinished
	}

	updated, err := s.reviewer.RecordReview(ctx, card.Word.ID, known)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.Word{}, err
	case err != nil:
		// The review is applied in memory even when saving fails
		s.logger.Warn("review not persisted", zap.String("item_id", card.Word.ID), zap.Error(err))
	}

	if known {
		s.summary.Known++
	} else {
		s.summary.Again++
	}
	s.pos++
	s.flipped = false

	return updated, nil
}

// Progress returns how many cards have been answered and the deck size
func (s *WordSession) Progress() (int, int) {
	return s.pos, len(s.cards)
}

// Done reports whether every card has been answered
func (s *WordSession) Done() bool {
	return s.pos >= len(s.cards)
}

// Summary returns the session counters
func (s *WordSession) Summary() WordSummary {
	return s.summary
}

// Cloze replaces the first case-insensitive occurrence of term with a blank.
// If term is absent the blank is appended.
func Cloze(sentence, term string) string {
	const blank = "_______"
	if term == "" {
		return sentence
	}
	lower, lowerTerm := strings.ToLower(sentence), strings.ToLower(term)
	// Offsets are only valid while lowering keeps byte lengths
	if len(lower) != len(sentence) || len(lowerTerm) != len(term) {
		return sentence + " " + blank
	}
	i := strings.Index(lower, lowerTerm)
	if i < 0 {
		return sentence + " " + blank
	}
	return sentence[:i] + blank + sentence[i+len(term):]
}
