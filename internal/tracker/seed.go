package tracker

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/example/engcards/pkg/models"
)

//go:embed data/initial_data.json
var initialData []byte

// DefaultSeed returns the bundled starter dataset
func DefaultSeed() (*models.Document, error) {
	return ParseSeed(initialData)
}

// ParseSeed decodes a seed dataset
func ParseSeed(data []byte) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed dataset: %w", err)
	}
	return &doc, nil
}
