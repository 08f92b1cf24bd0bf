package models

import "time"

// Word represents an English word to be learned
type Word struct {
	ID             string         `json:"id"`
	Term           string         `json:"term"`
	Definition     string         `json:"definition"`
	Example        string         `json:"example"`
	IPA            string         `json:"ipa,omitempty"`
	Status         LearningStatus `json:"status"`
	NextReviewDate *time.Time     `json:"nextReviewDate"`
	ReviewCount    int            `json:"reviewCount"`
}

// NewWord holds the user-supplied fields of a word added by hand
type NewWord struct {
	Term       string
	Definition string
	Example    string
	IPA        string
}
