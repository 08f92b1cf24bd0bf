// Package backup reads and writes the JSON document used for backup,
// restore and sharing of the catalog.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/engcards/pkg/models"
)

// FileName returns the suggested name of a backup written at now
func FileName(now time.Time) string {
	return fmt.Sprintf("english-learning-backup-%s.json", now.UTC().Format("2006-01-02"))
}

// Export builds the backup document for the given catalog. It does not touch its inputs.
func Export(words []models.Word, sentences []models.Sentence, now time.Time) models.Document {
	exportDate := now.UTC()
	doc := models.Document{
		Words:      append([]models.Word{}, words...),
		Sentences:  append([]models.Sentence{}, sentences...),
		ExportDate: &exportDate,
		Version:    models.DocumentVersion,
	}
	return doc
}

// Write encodes doc as indented JSON
func Write(w io.Writer, doc models.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// rawDocument keeps the sequences undecoded so their type can be checked first
type rawDocument struct {
	Words     json.RawMessage `json:"words"`
	Sentences json.RawMessage `json:"sentences"`
}

// ParseDocument decodes an import document. A document that is not valid JSON
// yields models.ErrParseFailure. Sequences that are missing or not arrays are
// treated as empty. Items are decoded one by one; those that do not fit the
// item shape or miss required fields are skipped and counted in Skipped.
func ParseDocument(r io.Reader) (*models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrParseFailure, err)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrParseFailure, err)
	}

	doc := &models.Document{
		Words:     []models.Word{},
		Sentences: []models.Sentence{},
	}

	for _, item := range rawItems(raw.Words) {
		var w models.Word
		if err := json.Unmarshal(item, &w); err != nil {
			doc.Skipped++
			continue
		}
		if w, ok := normalizeWord(w); ok {
			doc.Words = append(doc.Words, w)
		} else {
			doc.Skipped++
		}
	}

	for _, item := range rawItems(raw.Sentences) {
		var s models.Sentence
		if err := json.Unmarshal(item, &s); err != nil {
			doc.Skipped++
			continue
		}
		if s, ok := normalizeSentence(s); ok {
			doc.Sentences = append(doc.Sentences, s)
		} else {
			doc.Skipped++
		}
	}

	return doc, nil
}

// rawItems splits a JSON array into its elements; anything else is empty
func rawItems(raw json.RawMessage) []json.RawMessage {
	if !isArray(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func normalizeWord(w models.Word) (models.Word, bool) {
	if strings.TrimSpace(w.Term) == "" || strings.TrimSpace(w.Definition) == "" {
		return w, false
	}
	if strings.TrimSpace(w.ID) == "" {
		w.ID = "import_" + uuid.NewString()
	}
	if !w.Status.IsValid() {
		w.Status = models.StatusNew
	}
	if w.ReviewCount < 0 {
		w.ReviewCount = 0
	}
	return w, true
}

func normalizeSentence(s models.Sentence) (models.Sentence, bool) {
	if strings.TrimSpace(s.Original) == "" || strings.TrimSpace(s.Translation) == "" {
		return s, false
	}
	if strings.TrimSpace(s.ID) == "" {
		s.ID = "import_" + uuid.NewString()
	}
	if strings.TrimSpace(s.Pattern) == "" {
		s.Pattern = models.DefaultPattern
	}
	if !s.Status.IsValid() {
		s.Status = models.StatusNew
	}
	if s.ReviewCount < 0 {
		s.ReviewCount = 0
	}
	return s, true
}
