package study

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/engcards/internal/spaced_repetition"
	"github.com/example/engcards/pkg/models"
)

type fakeReviewer struct {
	calls []bool
	err   error
}

func (f *fakeReviewer) RecordReview(_ context.Context, id string, correct bool) (models.Word, error) {
	f.calls = append(f.calls, correct)
	if errors.Is(f.err, models.ErrNotFound) {
		return models.Word{}, f.err
	}
	return models.Word{ID: id, Status: models.StatusLearning, ReviewCount: len(f.calls)}, f.err
}

type recordingSpeech struct {
	spoken []string
	events []TranscriptEvent
}

func (r *recordingSpeech) Speak(_ context.Context, text, locale string, rate float64) error {
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *recordingSpeech) StartSession(context.Context) (<-chan TranscriptEvent, error) {
	ch := make(chan TranscriptEvent, len(r.events))
	for _, ev := range r.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func deck() []models.Word {
	return []models.Word{
		{ID: "m1", Term: "old", Status: models.StatusMastered},
		{ID: "w1", Term: "thrive", Definition: "grow well", Example: "Plants Thrive in sun.", Status: models.StatusNew},
		{ID: "w2", Term: "brisk", Status: models.StatusLearning},
	}
}

func TestWordSession_Flow(t *testing.T) {
	rev := &fakeReviewer{}
	sp := &recordingSpeech{}
	s := NewWordSession(deck(), spaced_repetition.NewLadder(), rev, sp, DefaultVoice(), nil)

	done, total := s.Progress()
	assert.Equal(t, 0, done)
	assert.Equal(t, 3, total)

	card, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "w1", card.Word.ID)
	assert.Equal(t, "Plants _______ in sun.", card.Hint)
	assert.False(t, card.Flipped)

	require.NoError(t, s.Show(context.Background()))
	assert.Equal(t, []string{"thrive"}, sp.spoken)

	s.Flip()
	card, _ = s.Current()
	assert.True(t, card.Flipped)

	_, err := s.Answer(context.Background(), true)
	require.NoError(t, err)
	card, _ = s.Current()
	assert.False(t, card.Flipped, "next card starts face down")

	_, err = s.Answer(context.Background(), false)
	require.NoError(t, err)
	_, err = s.Answer(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, s.Done())
	assert.Equal(t, WordSummary{Total: 3, Known: 2, Again: 1}, s.Summary())
	assert.Equal(t, []bool{true, false, true}, rev.calls)

	_, err = s.Answer(context.Background(), true)
	assert.ErrorIs(t, err, ErrSessionFinished)
	assert.ErrorIs(t, s.Show(context.Background()), ErrSessionFinished)
}

func TestWordSession_SilentWithoutSpeech(t *testing.T) {
	s := NewWordSession(deck(), nil, &fakeReviewer{}, nil, DefaultVoice(), nil)
	require.NoError(t, s.Show(context.Background()))
	assert.True(t, s.Silent())
}

func TestWordSession_ReviewErrors(t *testing.T) {
	t.Run("not found stops", func(t *testing.T) {
		s := NewWordSession(deck(), nil, &fakeReviewer{err: models.ErrNotFound}, nil, DefaultVoice(), nil)
		_, err := s.Answer(context.Background(), true)
		assert.ErrorIs(t, err, models.ErrNotFound)
		done, _ := s.Progress()
		assert.Equal(t, 0, done)
	})

	t.Run("save failure advances", func(t *testing.T) {
		s := NewWordSession(deck(), nil, &fakeReviewer{err: errors.New("disk full")}, nil, DefaultVoice(), nil)
		w, err := s.Answer(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, "w1", w.ID)
		done, _ := s.Progress()
		assert.Equal(t, 1, done)
	})
}

func TestWordSession_Empty(t *testing.T) {
	s := NewWordSession(nil, nil, &fakeReviewer{}, nil, DefaultVoice(), nil)
	assert.True(t, s.Done())
	_, ok := s.Current()
	assert.False(t, ok)
}

func sentences() []models.Sentence {
	return []models.Sentence{
		{ID: "s1", Pattern: "I'm about to ~", Original: "I'm about to leave."},
		{ID: "s2", Pattern: "Do you mind if ~", Original: "Do you mind if I sit here?"},
		{ID: "s3", Pattern: "I'm about to ~", Original: "I'm about to call you."},
		{ID: "s4", Pattern: "", Original: "See you."},
	}
}

func TestPatterns(t *testing.T) {
	assert.Equal(t, []PatternGroup{
		{Pattern: "I'm about to ~", Count: 2},
		{Pattern: "Do you mind if ~", Count: 1},
		{Pattern: models.DefaultPattern, Count: 1},
	}, Patterns(sentences()))
	assert.Empty(t, Patterns(nil))
}

func TestConversationSession_Flow(t *testing.T) {
	sp := &recordingSpeech{}
	c := NewConversationSession(sentences(), "I'm about to ~", sp, sp, DefaultVoice(), nil)
	ctx := context.Background()

	assert.Equal(t, ModeListen, c.Mode())
	_, total := c.Progress()
	assert.Equal(t, 2, total)

	require.NoError(t, c.Listen(ctx))
	assert.Equal(t, []string{"I'm about to leave."}, sp.spoken)
	assert.Equal(t, ModeSpeak, c.Mode())

	a, err := c.SubmitTranscript("im about to live")
	require.NoError(t, err)
	assert.False(t, a.Correct)
	assert.InDelta(t, 0.75, a.Score, 1e-9)
	assert.Equal(t, ModeResult, c.Mode())

	require.NoError(t, c.Retry())
	assert.Equal(t, ModeSpeak, c.Mode())
	_, ok := c.LastAttempt()
	assert.False(t, ok)

	a, err = c.SubmitTranscript("i'm About to leave")
	require.NoError(t, err)
	assert.True(t, a.Correct)

	require.NoError(t, c.Next())
	assert.Equal(t, ModeListen, c.Mode())
	s, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "s3", s.ID)

	sp.events = []TranscriptEvent{{Text: "I'm about"}, {Text: "I'm about to call you", Final: true}}
	require.NoError(t, c.Listen(ctx))
	a, err = c.Record(ctx)
	require.NoError(t, err)
	assert.True(t, a.Correct)

	require.NoError(t, c.Next())
	assert.True(t, c.Done())
	sum := c.Summary()
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Correct)
	assert.Len(t, sum.Attempts, 2)

	assert.ErrorIs(t, c.Next(), ErrSessionFinished)
}

func TestConversationSession_WrongModes(t *testing.T) {
	c := NewConversationSession(sentences(), models.DefaultPattern, nil, nil, DefaultVoice(), nil)

	assert.ErrorIs(t, c.Retry(), ErrWrongMode)
	_, err := c.Record(context.Background())
	assert.ErrorIs(t, err, ErrWrongMode)

	require.NoError(t, c.Listen(context.Background()))
	_, err = c.Record(context.Background())
	assert.ErrorIs(t, err, models.ErrUnsupportedEnvironment)

	_, err = c.SubmitTranscript("see you")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Listen(context.Background()), ErrWrongMode)
	_, err = c.SubmitTranscript("again")
	assert.ErrorIs(t, err, ErrWrongMode)
}

func TestConversationSession_SkipRecordsNothing(t *testing.T) {
	c := NewConversationSession(sentences(), "Do you mind if ~", nil, nil, DefaultVoice(), nil)
	require.NoError(t, c.Next())
	assert.True(t, c.Done())
	assert.Empty(t, c.Summary().Attempts)
}

func TestConversationSession_UnknownPattern(t *testing.T) {
	c := NewConversationSession(sentences(), "nope", nil, nil, DefaultVoice(), nil)
	assert.True(t, c.Done())
	assert.ErrorIs(t, c.Listen(context.Background()), ErrSessionFinished)
}

func TestMatchesAndScore(t *testing.T) {
	tests := []struct {
		expected, spoken string
		match            bool
		score            float64
	}{
		{"Do you mind if I sit here?", "do you mind if i sit here", true, 1},
		{"Do you mind if I sit here?", "do you mind", false, 3.0 / 7.0},
		{"It's fine.", "its fine", true, 1},
		{"Hello", "", false, 0},
		{"", "", false, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, Matches(tt.expected, tt.spoken), tt.spoken)
		assert.InDelta(t, tt.score, Score(tt.expected, tt.spoken), 1e-9, tt.spoken)
	}
}

func TestCloze(t *testing.T) {
	assert.Equal(t, "I _______ here.", Cloze("I thrive here.", "Thrive"))
	assert.Equal(t, "No match _______", Cloze("No match", "thrive"))
	assert.Equal(t, "kept", Cloze("kept", ""))
}

func TestCollect_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, make(chan TranscriptEvent))
	assert.ErrorIs(t, err, context.Canceled)
}
