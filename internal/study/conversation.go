package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/example/engcards/pkg/models"
)

// Mode is the step a conversation session is in
type Mode string

const (
	ModeListen  Mode = "listen"
	ModeSpeak   Mode = "speak"
	ModeResult  Mode = "result"
	ModeSummary Mode = "summary"
)

// ErrWrongMode is returned when an action does not fit the current step
var ErrWrongMode = errors.New("action not allowed in current mode")

// Attempt is the outcome of one spoken answer
type Attempt struct {
	SentenceID string
	Transcript string
	Expected   string
	Correct    bool
	// Score is the share of expected words spoken in order, 0..1
	Score float64
}

// ConversationSummary is shown after the last sentence
type ConversationSummary struct {
	Pattern  string
	Total    int
	Correct  int
	Attempts []Attempt
}

// PatternGroup is a sentence pattern with the number of sentences using it
type PatternGroup struct {
	Pattern string
	Count   int
}

// Patterns groups sentences by pattern in order of first appearance
func Patterns(sentences []models.Sentence) []PatternGroup {
	index := make(map[string]int)
	var groups []PatternGroup
	for _, s := range sentences {
		p := s.Pattern
		if p == "" {
			p = models.DefaultPattern
		}
		if i, ok := index[p]; ok {
			groups[i].Count++
			continue
		}
		index[p] = len(groups)
		groups = append(groups, PatternGroup{Pattern: p, Count: 1})
	}
	return groups
}

// ConversationSession drills the sentences of one pattern: listen, speak, compare
type ConversationSession struct {
	pattern   string
	sentences []models.Sentence
	pos       int
	mode      Mode
	last      *Attempt
	// latest attempt per sentence, in session order
	results []Attempt
	output  SpeechOutput
	input   SpeechInput
	voice   Voice
	silent  bool
	logger  *zap.Logger
}

// NewConversationSession selects the sentences of pattern and starts in listen mode
func NewConversationSession(sentences []models.Sentence, pattern string, output SpeechOutput, input SpeechInput, voice Voice, logger *zap.Logger) *ConversationSession {
	if output == nil {
		output = NopSpeech{}
	}
	if input == nil {
		input = NopSpeech{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var selected []models.Sentence
	for _, s := range sentences {
		p := s.Pattern
		if p == "" {
			p = models.DefaultPattern
		}
		if p == pattern {
			selected = append(selected, s)
		}
	}

	mode := ModeListen
	if len(selected) == 0 {
		mode = ModeSummary
	}
	return &ConversationSession{
		pattern:   pattern,
		sentences: selected,
		mode:      mode,
		output:    output,
		input:     input,
		voice:     voice,
		logger:    logger,
	}
}

// Mode returns the current step
func (c *ConversationSession) Mode() Mode {
	return c.mode
}

// Current returns the sentence being practised
func (c *ConversationSession) Current() (models.Sentence, bool) {
	if c.mode == ModeSummary || c.pos >= len(c.sentences) {
		return models.Sentence{}, false
	}
	return c.sentences[c.pos], true
}

// Progress returns the position of the current sentence and the total
func (c *ConversationSession) Progress() (int, int) {
	return c.pos, len(c.sentences)
}

// Listen reads the current sentence aloud and moves to speak mode.
// Without speech output the session continues silently.
func (c *ConversationSession) Listen(ctx context.Context) error {
	s, ok := c.Current()
	if !ok {
		return ErrSessionFinished
	}
	if c.mode != ModeListen && c.mode != ModeSpeak {
		return fmt.Errorf("listen in %s: %w", c.mode, ErrWrongMode)
	}

	if !c.silent {
		err := c.output.Speak(ctx, s.Original, c.voice.Locale, c.voice.Rate)
		switch {
		case errors.Is(err, models.ErrUnsupportedEnvironment):
			c.logger.Debug("speech output unavailable, continuing silently")
			c.silent = true
		case err != nil:
			return fmt.Errorf("failed to speak sentence: %w", err)
		}
	}

	c.mode = ModeSpeak
	return nil
}

// Record captures one spoken answer through speech input.
// models.ErrUnsupportedEnvironment tells the caller to fall back to SubmitTranscript.
func (c *ConversationSession) Record(ctx context.Context) (Attempt, error) {
	if _, ok := c.Current(); !ok {
		return Attempt{}, ErrSessionFinished
	}
	if c.mode != ModeSpeak {
		return Attempt{}, fmt.Errorf("record in %s: %w", c.mode, ErrWrongMode)
	}

	events, err := c.input.StartSession(ctx)
	if err != nil {
		return Attempt{}, fmt.Errorf("failed to start recognition: %w", err)
	}
	text, err := Collect(ctx, events)
	if err != nil {
		return Attempt{}, fmt.Errorf("recognition interrupted: %w", err)
	}
	return c.SubmitTranscript(text)
}

// SubmitTranscript compares what the learner said with the current sentence
func (c *ConversationSession) SubmitTranscript(text string) (Attempt, error) {
	s, ok := c.Current()
	if !ok {
		return Attempt{}, ErrSessionFinished
	}
	if c.mode != ModeListen && c.mode != ModeSpeak {
		return Attempt{}, fmt.Errorf("submit in %s: %w", c.mode, ErrWrongMode)
	}

	score := Score(s.Original, text)
	attempt := Attempt{
		SentenceID: s.ID,
		Transcript: strings.TrimSpace(text),
		Expected:   s.Original,
		Correct:    Matches(s.Original, text),
		Score:      score,
	}
	c.last = &attempt
	c.mode = ModeResult
	return attempt, nil
}

// LastAttempt returns the attempt shown in result mode
func (c *ConversationSession) LastAttempt() (Attempt, bool) {
	if c.last == nil {
		return Attempt{}, false
	}
	return *c.last, true
}

// Retry discards the shown attempt and returns to speak mode
func (c *ConversationSession) Retry() error {
	if c.mode != ModeResult {
		return fmt.Errorf("retry in %s: %w", c.mode, ErrWrongMode)
	}
	c.last = nil
	c.mode = ModeSpeak
	return nil
}

// Next keeps the shown attempt and advances, ending in summary mode after the last sentence.
// Skipping a sentence from listen or speak mode records no attempt.
func (c *ConversationSession) Next() error {
	if c.mode == ModeSummary {
		return ErrSessionFinished
	}
	if c.last != nil {
		c.results = append(c.results, *c.last)
		c.last = nil
	}
	c.pos++
	if c.pos >= len(c.sentences) {
		c.mode = ModeSummary
		return nil
	}
	c.mode = ModeListen
	return nil
}

// Done reports whether the session reached the summary
func (c *ConversationSession) Done() bool {
	return c.mode == ModeSummary
}

// Summary returns the attempts kept during the session
func (c *ConversationSession) Summary() ConversationSummary {
	sum := ConversationSummary{
		Pattern:  c.pattern,
		Total:    len(c.sentences),
		Attempts: append([]Attempt(nil), c.results...),
	}
	for _, a := range c.results {
		if a.Correct {
			sum.Correct++
		}
	}
	return sum
}

// Matches reports whether spoken equals expected, ignoring case and punctuation
func Matches(expected, spoken string) bool {
	e := normalizeWords(expected)
	return len(e) > 0 && strings.Join(e, " ") == strings.Join(normalizeWords(spoken), " ")
}

// Score returns the longest in-order run of expected words found in spoken,
// as a share of the expected words
func Score(expected, spoken string) float64 {
	e := normalizeWords(expected)
	if len(e) == 0 {
		return 0
	}
	s := normalizeWords(spoken)

	// longest common subsequence over words
	prev := make([]int, len(s)+1)
	cur := make([]int, len(s)+1)
	for i := 1; i <= len(e); i++ {
		for j := 1; j <= len(s); j++ {
			switch {
			case e[i-1] == s[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return float64(prev[len(s)]) / float64(len(e))
}

func normalizeWords(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// contractions stay one word
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
