package excel

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/example/engcards/pkg/models"
)

const defaultSheet = "Sheet1"

var (
	exportWordColumns     = append(append([]string{}, WordColumns...), "status", "reviewCount")
	exportSentenceColumns = append(append([]string{}, SentenceColumns...), "status", "reviewCount")
)

// TemplateFileName is the suggested name of the blank import workbook
const TemplateFileName = "english-learning-template.xlsx"

// WriteTemplate writes a blank workbook with the Words and Sentences header rows
func WriteTemplate(w io.Writer) error {
	f := newWorkbook()
	defer f.Close()

	if err := f.SetSheetRow(WordsSheet, "A1", &WordColumns); err != nil {
		return fmt.Errorf("failed to write words header: %w", err)
	}
	if err := f.SetSheetRow(SentencesSheet, "A1", &SentenceColumns); err != nil {
		return fmt.Errorf("failed to write sentences header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// ExportWorkbook writes the catalog as a workbook that ReadWorkbook accepts
func ExportWorkbook(w io.Writer, words []models.Word, sentences []models.Sentence) error {
	f := newWorkbook()
	defer f.Close()

	if err := f.SetSheetRow(WordsSheet, "A1", &exportWordColumns); err != nil {
		return fmt.Errorf("failed to write words header: %w", err)
	}
	for i, word := range words {
		row := []interface{}{word.Term, word.Definition, word.Example, word.IPA, word.Status.String(), word.ReviewCount}
		if err := f.SetSheetRow(WordsSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return fmt.Errorf("failed to write word %s: %w", word.ID, err)
		}
	}

	if err := f.SetSheetRow(SentencesSheet, "A1", &exportSentenceColumns); err != nil {
		return fmt.Errorf("failed to write sentences header: %w", err)
	}
	for i, s := range sentences {
		row := []interface{}{s.Pattern, s.Original, s.Translation, s.Situation, s.Status.String(), s.ReviewCount}
		if err := f.SetSheetRow(SentencesSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return fmt.Errorf("failed to write sentence %s: %w", s.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// newWorkbook returns a file whose sheets are Words and Sentences
func newWorkbook() *excelize.File {
	f := excelize.NewFile()
	f.SetSheetName(defaultSheet, WordsSheet)
	f.NewSheet(SentencesSheet)
	return f
}
