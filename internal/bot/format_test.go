package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/engcards/internal/tracker"
	"github.com/example/engcards/pkg/models"
)

func TestParseWordLine(t *testing.T) {
	tests := []struct {
		line       string
		term, defn string
		wantErr    bool
	}{
		{line: "hello - привет", term: "hello", defn: "привет"},
		{line: "world-мир", term: "world", defn: "мир"},
		{line: "well-being - state of comfort", term: "well-being", defn: "state of comfort"},
		{line: "up-to-date", wantErr: true},
		{line: "no separator", wantErr: true},
		{line: " - empty term", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			nw, err := parseWordLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.term, nw.Term)
			assert.Equal(t, tt.defn, nw.Definition)
		})
	}
}

func TestParseWordLines(t *testing.T) {
	words, problems := parseWordLines("a - b\n\n  \nbroken\nc - d\n")
	assert.Len(t, words, 2)
	assert.Len(t, problems, 1)
}

func TestFormatStats(t *testing.T) {
	last := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	text := formatStats(models.Statistics{
		TotalWords: 8, MasteredWords: 2, TotalSentences: 6, StreakDays: 1, LastStudyDate: &last,
	})
	assert.Contains(t, text, "25%")
	assert.Contains(t, text, "▓▓░░░░░░░░")
	assert.Contains(t, text, "Words mastered: 2 / 8")
	assert.Contains(t, text, "Streak: 1 day\n")
	assert.Contains(t, text, "2024-03-05")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░", progressBar(0))
	assert.Equal(t, "▓▓▓▓▓▓▓▓▓▓", progressBar(100))
	assert.Equal(t, "▓▓▓▓▓▓▓▓▓▓", progressBar(150))
}

func TestFormatMergeResult(t *testing.T) {
	assert.Contains(t, formatMergeResult(tracker.MergeResult{WordsSkipped: 3}), "Nothing new")
	assert.Contains(t, formatMergeResult(tracker.MergeResult{WordsAdded: 2, SentencesAdded: 1, WordsSkipped: 1}),
		"Imported 2 words and 1 sentence")
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(models.ErrEmptyImport), "Nothing importable")
	assert.Contains(t, userMessage(models.ErrParseFailure), "could not be read")
	assert.Contains(t, userMessage(models.ErrNotFound), "no longer exists")
}
