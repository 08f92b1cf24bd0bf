package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/example/engcards/pkg/models"
)

const (
	WordsSheet     = "Words"
	SentencesSheet = "Sentences"
)

var (
	WordColumns     = []string{"term", "definition", "example", "ipa"}
	SentenceColumns = []string{"pattern", "original", "translation", "situation"}
)

// SheetResult holds the counters of one imported sheet
type SheetResult struct {
	Processed int
	Accepted  int
	Skipped   int
	Errors    []string
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Words     SheetResult
	Sentences SheetResult
}

// Batch is the set of items read from a spreadsheet, ready to be merged
type Batch struct {
	Words     []models.Word
	Sentences []models.Sentence
	Result    ImportResult
}

// Empty reports whether nothing importable was found
func (b *Batch) Empty() bool {
	return len(b.Words) == 0 && len(b.Sentences) == 0
}

// ReadWorkbook reads the Words and Sentences sheets of an xlsx workbook
func ReadWorkbook(r io.Reader) (*Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v: %w", err, models.ErrParseFailure)
	}
	defer f.Close()

	batch := &Batch{}
	sheets := f.GetSheetList()

	if name, ok := findSheet(sheets, WordsSheet); ok {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of %s: %v: %w", name, err, models.ErrParseFailure)
		}
		readWordRows(rows, batch)
	}

	if name, ok := findSheet(sheets, SentencesSheet); ok {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of %s: %v: %w", name, err, models.ErrParseFailure)
		}
		readSentenceRows(rows, batch)
	}

	if batch.Empty() {
		return nil, models.ErrEmptyImport
	}
	return batch, nil
}

// ReadCSV reads words or sentences from a CSV file.
// A header with "term" reads words, a header with "original" reads sentences.
// Without a recognised header rows are read as "word,[transcription],translation"
// and single-cell rows are treated as group titles.
func ReadCSV(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %v: %w", err, models.ErrParseFailure)
	}
	if len(rows) == 0 {
		return nil, models.ErrEmptyImport
	}

	batch := &Batch{}
	header := headerIndex(rows[0])
	switch {
	case hasColumn(header, "term"):
		readWordRows(rows, batch)
	case hasColumn(header, "original"):
		readSentenceRows(rows, batch)
	default:
		readPositionalRows(rows, batch)
	}

	if batch.Empty() {
		return nil, models.ErrEmptyImport
	}
	return batch, nil
}

func readWordRows(rows [][]string, batch *Batch) {
	if len(rows) == 0 {
		return
	}
	header := headerIndex(rows[0])
	res := &batch.Result.Words

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		res.Processed++

		term := cell(row, header, "term")
		definition := cell(row, header, "definition")
		if term == "" || definition == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: term and definition are required", i+2))
			continue
		}

		batch.Words = append(batch.Words, models.Word{
			ID:         newID(),
			Term:       term,
			Definition: definition,
			Example:    cell(row, header, "example"),
			IPA:        cell(row, header, "ipa"),
			Status:     models.StatusNew,
		})
		res.Accepted++
	}
}

func readSentenceRows(rows [][]string, batch *Batch) {
	if len(rows) == 0 {
		return
	}
	header := headerIndex(rows[0])
	res := &batch.Result.Sentences

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		res.Processed++

		original := cell(row, header, "original")
		translation := cell(row, header, "translation")
		if original == "" || translation == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: original and translation are required", i+2))
			continue
		}

		pattern := cell(row, header, "pattern")
		if pattern == "" {
			pattern = models.DefaultPattern
		}

		batch.Sentences = append(batch.Sentences, models.Sentence{
			ID:          newID(),
			Pattern:     pattern,
			Original:    original,
			Translation: translation,
			Situation:   cell(row, header, "situation"),
			Status:      models.StatusNew,
		})
		res.Accepted++
	}
}

// readPositionalRows handles the headerless "word,[transcription],translation" layout
func readPositionalRows(rows [][]string, batch *Batch) {
	res := &batch.Result.Words

	for i, row := range rows {
		if blank(row) {
			continue
		}
		// Group titles such as "Movement,," carry no word
		if strings.TrimSpace(row[0]) != "" && (len(row) < 2 || strings.TrimSpace(strings.Join(row[1:], "")) == "") {
			continue
		}
		res.Processed++

		if len(row) < 3 {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: expected word, transcription and translation", i+1))
			continue
		}

		term := cleanWord(row[0])
		definition := strings.TrimSpace(row[2])
		if term == "" || definition == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: word and translation are required", i+1))
			continue
		}

		batch.Words = append(batch.Words, models.Word{
			ID:         newID(),
			Term:       term,
			Definition: definition,
			IPA:        strings.TrimSpace(row[1]),
			Status:     models.StatusNew,
		})
		res.Accepted++
	}
}

// cleanWord removes trailing forms in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func headerIndex(row []string) map[string]int {
	idx := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := idx[key]; !exists && key != "" {
			idx[key] = i
		}
	}
	return idx
}

func hasColumn(header map[string]int, name string) bool {
	_, ok := header[name]
	return ok
}

func cell(row []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func findSheet(sheets []string, name string) (string, bool) {
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return s, true
		}
	}
	return "", false
}

func newID() string {
	return "excel_" + uuid.NewString()
}

// IsUserError reports whether err describes bad input rather than a system failure
func IsUserError(err error) bool {
	return errors.Is(err, models.ErrParseFailure) || errors.Is(err, models.ErrEmptyImport)
}
