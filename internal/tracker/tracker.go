package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/engcards/internal/spaced_repetition"
	"github.com/example/engcards/pkg/models"
)

// Store persists the whole catalog as one record
type Store interface {
	Load(ctx context.Context) (*models.State, error)
	Save(ctx context.Context, state *models.State) error
	Clear(ctx context.Context) error
}

// ReviewLog keeps a history of answered flashcards next to the catalog
type ReviewLog interface {
	Record(ctx context.Context, e models.ReviewEntry) error
	Clear(ctx context.Context) error
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger used for persistence and lifecycle events
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithLadder overrides the status progression
func WithLadder(l *spaced_repetition.Ladder) Option {
	return func(t *Tracker) { t.ladder = l }
}

// WithReviewLog records every review in history
func WithReviewLog(h ReviewLog) Option {
	return func(t *Tracker) { t.history = h }
}

// MergeResult counts what an import added and what it dropped as duplicates
type MergeResult struct {
	WordsAdded       int
	WordsSkipped     int
	SentencesAdded   int
	SentencesSkipped int
}

// Added returns the number of items appended to the catalog
func (r MergeResult) Added() int {
	return r.WordsAdded + r.SentencesAdded
}

// Tracker owns the catalog of words and sentences and their learning progress.
// Every mutation is written through to the Store.
type Tracker struct {
	mu      sync.Mutex
	store   Store
	seed    *models.Document
	ladder  *spaced_repetition.Ladder
	history ReviewLog
	now     func() time.Time
	logger  *zap.Logger

	words     []models.Word
	sentences []models.Sentence
	stats     models.Statistics
}

// New creates a tracker over store. seed may be nil, in which case Initialize never populates.
func New(store Store, seed *models.Document, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		seed:   seed,
		ladder: spaced_repetition.NewLadder(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the in-memory catalog with the persisted one.
// Derived counters are recomputed so a stale record cannot break them.
func (t *Tracker) Load(ctx context.Context) error {
	state, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.words = append([]models.Word(nil), state.Words...)
	t.sentences = append([]models.Sentence(nil), state.Sentences...)
	t.stats = state.Stats
	t.recount()

	t.logger.Info("catalog loaded",
		zap.Int("words", len(t.words)),
		zap.Int("sentences", len(t.sentences)),
	)
	return nil
}

// Initialize seeds the catalog from the bundled dataset when it holds no
// words and no sentences. It reports whether seeding happened.
func (t *Tracker) Initialize(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.words) > 0 || len(t.sentences) > 0 || t.seed == nil {
		return false, nil
	}

	words := make([]models.Word, 0, len(t.seed.Words))
	for _, w := range t.seed.Words {
		if w.ID == "" {
			w.ID = newID("seed")
		}
		w.Status = models.StatusNew
		w.ReviewCount = 0
		w.NextReviewDate = nil
		words = append(words, w)
	}

	sentences := make([]models.Sentence, 0, len(t.seed.Sentences))
	for _, s := range t.seed.Sentences {
		if s.ID == "" {
			s.ID = newID("seed")
		}
		s.Status = models.StatusNew
		s.ReviewCount = 0
		s.NextReviewDate = nil
		sentences = append(sentences, s)
	}

	if len(words) == 0 && len(sentences) == 0 {
		return false, nil
	}

	t.words = words
	t.sentences = sentences
	t.recount()

	t.logger.Info("catalog seeded",
		zap.Int("words", len(words)),
		zap.Int("sentences", len(sentences)),
	)
	return true, t.persist(ctx)
}

// RecordReview applies review feedback to the word with the given id.
// It returns models.ErrNotFound and changes nothing when the id is unknown.
func (t *Tracker) RecordReview(ctx context.Context, itemID string, wasCorrect bool) (models.Word, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.wordIndex(itemID)
	if idx < 0 {
		return models.Word{}, fmt.Errorf("record review %q: %w", itemID, models.ErrNotFound)
	}

	now := t.now()
	next := t.ladder.NextReviewDate(now)

	w := &t.words[idx]
	previous := w.Status
	w.Status = t.ladder.Next(w.Status, wasCorrect)
	w.ReviewCount++
	w.NextReviewDate = &next

	t.touchStreak(now)
	t.recount()

	if t.history != nil {
		entry := models.ReviewEntry{ItemID: itemID, Correct: wasCorrect, From: previous, To: w.Status, ReviewedAt: now}
		if err := t.history.Record(ctx, entry); err != nil {
			t.logger.Warn("review history not recorded", zap.String("item_id", itemID), zap.Error(err))
		}
	}

	t.logger.Debug("review recorded",
		zap.String("item_id", itemID),
		zap.Bool("correct", wasCorrect),
		zap.String("from", previous.String()),
		zap.String("to", w.Status.String()),
		zap.Int("review_count", w.ReviewCount),
	)
	return *w, t.persist(ctx)
}

// AddWord appends a hand-entered word as a new item
func (t *Tracker) AddWord(ctx context.Context, nw models.NewWord) (models.Word, error) {
	term := strings.TrimSpace(nw.Term)
	definition := strings.TrimSpace(nw.Definition)
	if term == "" {
		return models.Word{}, fmt.Errorf("%w: term cannot be empty", models.ErrValidation)
	}
	if definition == "" {
		return models.Word{}, fmt.Errorf("%w: definition cannot be empty", models.ErrValidation)
	}

	word := models.Word{
		ID:         newID("custom"),
		Term:       term,
		Definition: definition,
		Example:    strings.TrimSpace(nw.Example),
		IPA:        strings.TrimSpace(nw.IPA),
		Status:     models.StatusNew,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.words = append(t.words, word)
	t.recount()

	t.logger.Info("word added", zap.String("item_id", word.ID), zap.String("term", word.Term))
	return word, t.persist(ctx)
}

// Merge appends imported items whose ids are not in the catalog yet.
// Existing items always win; duplicates inside the batch keep their first occurrence.
func (t *Tracker) Merge(ctx context.Context, words []models.Word, sentences []models.Sentence) (MergeResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res MergeResult

	seenWords := make(map[string]struct{}, len(t.words)+len(words))
	for _, w := range t.words {
		seenWords[w.ID] = struct{}{}
	}
	newWords := make([]models.Word, 0, len(words))
	for _, w := range words {
		if w.ID == "" {
			w.ID = newID("import")
		}
		if _, ok := seenWords[w.ID]; ok {
			res.WordsSkipped++
			continue
		}
		seenWords[w.ID] = struct{}{}
		newWords = append(newWords, w)
	}

	seenSentences := make(map[string]struct{}, len(t.sentences)+len(sentences))
	for _, s := range t.sentences {
		seenSentences[s.ID] = struct{}{}
	}
	newSentences := make([]models.Sentence, 0, len(sentences))
	for _, s := range sentences {
		if s.ID == "" {
			s.ID = newID("import")
		}
		if _, ok := seenSentences[s.ID]; ok {
			res.SentencesSkipped++
			continue
		}
		seenSentences[s.ID] = struct{}{}
		newSentences = append(newSentences, s)
	}

	res.WordsAdded = len(newWords)
	res.SentencesAdded = len(newSentences)

	t.logger.Info("import merged",
		zap.Int("words_added", res.WordsAdded),
		zap.Int("words_skipped", res.WordsSkipped),
		zap.Int("sentences_added", res.SentencesAdded),
		zap.Int("sentences_skipped", res.SentencesSkipped),
	)

	if res.Added() == 0 {
		return res, nil
	}

	t.words = append(t.words, newWords...)
	t.sentences = append(t.sentences, newSentences...)
	t.recount()

	return res, t.persist(ctx)
}

// Reset wipes the persisted state and the in-memory catalog.
// The caller re-runs Initialize to start over from the seed dataset.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	if t.history != nil {
		if err := t.history.Clear(ctx); err != nil {
			t.logger.Warn("review history not cleared", zap.Error(err))
		}
	}

	t.words = nil
	t.sentences = nil
	t.stats = models.Statistics{}

	t.logger.Warn("catalog reset")
	return nil
}

// ExpireStreak zeroes the streak when nothing was studied yesterday or today.
// It reports whether the streak changed.
func (t *Tracker) ExpireStreak(ctx context.Context, now time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stats.LastStudyDate == nil || t.stats.StreakDays == 0 {
		return false, nil
	}

	last := dateOf(t.stats.LastStudyDate.In(now.Location()))
	today := dateOf(now)
	if !last.AddDate(0, 0, 1).Before(today) {
		return false, nil
	}

	t.logger.Info("streak expired", zap.Int("streak_days", t.stats.StreakDays))
	t.stats.StreakDays = 0
	return true, t.persist(ctx)
}

// StudiedOn reports whether a review was recorded on the calendar day of now
func (t *Tracker) StudiedOn(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stats.LastStudyDate == nil {
		return false
	}
	return dateOf(t.stats.LastStudyDate.In(now.Location())).Equal(dateOf(now))
}

// Words returns a copy of the word sequence
func (t *Tracker) Words() []models.Word {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Word(nil), t.words...)
}

// Sentences returns a copy of the sentence sequence
func (t *Tracker) Sentences() []models.Sentence {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Sentence(nil), t.sentences...)
}

// Word looks up a word by id
func (t *Tracker) Word(id string) (models.Word, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.wordIndex(id)
	if idx < 0 {
		return models.Word{}, false
	}
	return t.words[idx], true
}

// Stats returns the current statistics
func (t *Tracker) Stats() models.Statistics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Snapshot returns a copy of the full catalog
func (t *Tracker) Snapshot() models.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() models.State {
	return models.State{
		Words:     append([]models.Word(nil), t.words...),
		Sentences: append([]models.Sentence(nil), t.sentences...),
		Stats:     t.stats,
	}
}

func (t *Tracker) wordIndex(id string) int {
	for i := range t.words {
		if t.words[i].ID == id {
			return i
		}
	}
	return -1
}

// recount refreshes every counter derived from the sequences
func (t *Tracker) recount() {
	t.stats.TotalWords = len(t.words)
	t.stats.TotalSentences = len(t.sentences)
	t.stats.MasteredWords, t.stats.MasteredSentences = spaced_repetition.CountMastered(t.words, t.sentences)
}

// touchStreak extends the daily streak for a review made at now
func (t *Tracker) touchStreak(now time.Time) {
	today := dateOf(now)

	switch {
	case t.stats.LastStudyDate == nil:
		t.stats.StreakDays = 1
	default:
		last := dateOf(t.stats.LastStudyDate.In(now.Location()))
		switch {
		case last.Equal(today):
			if t.stats.StreakDays == 0 {
				t.stats.StreakDays = 1
			}
		case last.AddDate(0, 0, 1).Equal(today):
			t.stats.StreakDays++
		default:
			t.stats.StreakDays = 1
		}
	}

	studied := now
	t.stats.LastStudyDate = &studied
}

func (t *Tracker) persist(ctx context.Context) error {
	state := t.snapshotLocked()
	if err := t.store.Save(ctx, &state); err != nil {
		t.logger.Error("failed to persist state", zap.Error(err))
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// newID builds a globally unique item id with a readable origin prefix
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
