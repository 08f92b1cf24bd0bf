package importer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/example/engcards/internal/backup"
	"github.com/example/engcards/internal/excel"
	"github.com/example/engcards/pkg/models"
)

// Batch is a parsed import file waiting to be merged
type Batch struct {
	Source    string
	Words     []models.Word
	Sentences []models.Sentence
	// Rows or items dropped for missing or malformed fields
	Skipped int
}

// Extensions lists the accepted file types
var Extensions = []string{".json", ".xlsx", ".csv"}

// Parse reads a backup document, workbook or CSV list chosen by the file extension.
// Nothing is merged here, so a failure leaves the catalog untouched.
func Parse(name string, r io.Reader) (*Batch, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		doc, err := backup.ParseDocument(r)
		if err != nil {
			return nil, err
		}
		if len(doc.Words) == 0 && len(doc.Sentences) == 0 {
			return nil, models.ErrEmptyImport
		}
		return &Batch{Source: name, Words: doc.Words, Sentences: doc.Sentences, Skipped: doc.Skipped}, nil
	case ".xlsx":
		batch, err := excel.ReadWorkbook(r)
		if err != nil {
			return nil, err
		}
		return fromSheet(name, batch), nil
	case ".csv":
		batch, err := excel.ReadCSV(r)
		if err != nil {
			return nil, err
		}
		return fromSheet(name, batch), nil
	default:
		return nil, fmt.Errorf("unsupported file type %q: %w", filepath.Ext(name), models.ErrParseFailure)
	}
}

// ParseBytes is Parse for an in-memory file
func ParseBytes(name string, data []byte) (*Batch, error) {
	return Parse(name, bytes.NewReader(data))
}

func fromSheet(name string, b *excel.Batch) *Batch {
	return &Batch{
		Source:    name,
		Words:     b.Words,
		Sentences: b.Sentences,
		Skipped:   b.Result.Words.Skipped + b.Result.Sentences.Skipped,
	}
}
