package models

import "time"

// StateKey names the single persisted record holding the whole catalog
const StateKey = "english-learning-storage"

// DocumentVersion is the schema version written to export documents
const DocumentVersion = "1.0"

// State is the persisted form of the catalog
type State struct {
	Words     []Word     `json:"words"`
	Sentences []Sentence `json:"sentences"`
	Stats     Statistics `json:"stats"`
}

// Document is the shape shared by the seed dataset, backups and imports
type Document struct {
	Words      []Word     `json:"words"`
	Sentences  []Sentence `json:"sentences"`
	ExportDate *time.Time `json:"exportDate,omitempty"`
	Version    string     `json:"version,omitempty"`
	// Items dropped while parsing an import
	Skipped int `json:"-"`
}
