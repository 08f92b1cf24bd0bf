package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/engcards/pkg/models"
)

func TestFileName(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 7, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "english-learning-backup-2024-05-07.json", FileName(now))
}

func TestExportAndWrite(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 7, 9, 30, 0, 0, time.UTC)
	words := []models.Word{{ID: "w1", Term: "candid", Definition: "frank", Status: models.StatusReview, ReviewCount: 2}}

	doc := Export(words, nil, now)
	assert.Equal(t, "1.0", doc.Version)
	require.NotNil(t, doc.ExportDate)
	assert.Equal(t, now, *doc.ExportDate)
	assert.NotNil(t, doc.Sentences)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "1.0", decoded["version"])
	assert.Equal(t, "2024-05-07T09:30:00Z", decoded["exportDate"])
	assert.Len(t, decoded["words"], 1)
	assert.Equal(t, []any{}, decoded["sentences"])

	first := decoded["words"].([]any)[0].(map[string]any)
	assert.Equal(t, "review", first["status"])
	assert.EqualValues(t, 2, first["reviewCount"])
	assert.Nil(t, first["nextReviewDate"])
}

func TestExportDoesNotShareSlices(t *testing.T) {
	t.Parallel()

	words := []models.Word{{ID: "w1", Term: "a", Definition: "b"}}
	doc := Export(words, nil, time.Now())
	doc.Words[0].Term = "changed"
	assert.Equal(t, "a", words[0].Term)
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		input         string
		wantErr       error
		wantWords     int
		wantSentences int
	}{
		{
			name:    "not json",
			input:   "{words: [",
			wantErr: models.ErrParseFailure,
		},
		{
			name:  "empty object",
			input: `{}`,
		},
		{
			name:  "sequences are not arrays",
			input: `{"words": "nope", "sentences": {"a": 1}}`,
		},
		{
			name:  "null sequences",
			input: `{"words": null, "sentences": null}`,
		},
		{
			name:          "full document",
			input:         `{"words":[{"id":"w1","term":"thrive","definition":"grow well","example":"","status":"mastered","reviewCount":4,"nextReviewDate":"2024-01-02T03:04:05.000Z"}],"sentences":[{"id":"s1","pattern":"Do you mind if ~","original":"Do you mind if I sit?","translation":"앉아도 될까요?","situation":"cafe","status":"new","reviewCount":0,"nextReviewDate":null}],"exportDate":"2024-01-02T03:04:05.000Z","version":"1.0"}`,
			wantWords:     1,
			wantSentences: 1,
		},
		{
			name:      "items missing required fields are dropped",
			input:     `{"words":[{"id":"w1","term":"","definition":"x"},{"id":"w2","term":"ok","definition":"fine"}],"sentences":[{"id":"s1","original":"Hi"}]}`,
			wantWords: 1,
		},
		{
			name:  "array of wrong element type",
			input: `{"words":[1,2,3]}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := ParseDocument(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.Words, tt.wantWords)
			assert.Len(t, doc.Sentences, tt.wantSentences)
		})
	}
}

func TestParseDocumentNormalizesItems(t *testing.T) {
	t.Parallel()

	input := `{
		"words": [{"term": "feasible", "definition": "possible", "status": "weird", "reviewCount": -3}],
		"sentences": [{"original": "I'm about to go.", "translation": "막 가려던 참이에요."}]
	}`

	doc, err := ParseDocument(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Words, 1)
	require.Len(t, doc.Sentences, 1)

	w := doc.Words[0]
	assert.True(t, strings.HasPrefix(w.ID, "import_"))
	assert.Equal(t, models.StatusNew, w.Status)
	assert.Equal(t, 0, w.ReviewCount)

	s := doc.Sentences[0]
	assert.True(t, strings.HasPrefix(s.ID, "import_"))
	assert.Equal(t, models.DefaultPattern, s.Pattern)
	assert.Equal(t, models.StatusNew, s.Status)
}

func TestParseDocumentKeepsProgress(t *testing.T) {
	t.Parallel()

	input := `{"words":[{"id":"w9","term":"a","definition":"b","status":"review","reviewCount":7,"nextReviewDate":"2024-01-02T03:04:05.000Z"}]}`
	doc, err := ParseDocument(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Words, 1)

	w := doc.Words[0]
	assert.Equal(t, "w9", w.ID)
	assert.Equal(t, models.StatusReview, w.Status)
	assert.Equal(t, 7, w.ReviewCount)
	require.NotNil(t, w.NextReviewDate)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), w.NextReviewDate.UTC())
}

func TestParseDocumentSkipsMistypedItems(t *testing.T) {
	t.Parallel()

	input := `{
		"words": [
			{"id": "w1", "term": "thrive", "definition": "grow well", "reviewCount": 2},
			{"id": "w2", "term": "cope", "definition": "manage", "reviewCount": "3"},
			{"id": 17, "term": "dwell", "definition": "live"},
			"not a word"
		],
		"sentences": [
			{"id": "s1", "original": "Do you mind if I sit?", "translation": "앉아도 될까요?"},
			{"id": "s2", "original": "Hi", "translation": "안녕", "status": 5}
		]
	}`

	doc, err := ParseDocument(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, doc.Words, 1)
	assert.Equal(t, "w1", doc.Words[0].ID)
	assert.Equal(t, 2, doc.Words[0].ReviewCount)

	require.Len(t, doc.Sentences, 1)
	assert.Equal(t, "s1", doc.Sentences[0].ID)

	assert.Equal(t, 4, doc.Skipped)
}
