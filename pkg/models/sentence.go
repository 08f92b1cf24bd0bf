package models

import "time"

// DefaultPattern is the category given to sentences imported without one
const DefaultPattern = "Etc"

// Sentence represents a conversation pattern example
type Sentence struct {
	ID             string         `json:"id"`
	Pattern        string         `json:"pattern"`
	Original       string         `json:"original"`
	Translation    string         `json:"translation"`
	Situation      string         `json:"situation"`
	Status         LearningStatus `json:"status"`
	NextReviewDate *time.Time     `json:"nextReviewDate"`
	ReviewCount    int            `json:"reviewCount"`
}
