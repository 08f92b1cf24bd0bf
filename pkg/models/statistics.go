package models

import "time"

// Statistics is the aggregate progress derived from the catalog
type Statistics struct {
	TotalWords        int        `json:"totalWords"`
	MasteredWords     int        `json:"masteredWords"`
	TotalSentences    int        `json:"totalSentences"`
	MasteredSentences int        `json:"masteredSentences"`
	StreakDays        int        `json:"streakDays"`
	LastStudyDate     *time.Time `json:"lastStudyDate"`
}

// Progress returns the mastered share of words in percent, capped at 100
func (s Statistics) Progress() float64 {
	total := s.TotalWords
	if total == 0 {
		total = 1
	}
	p := float64(s.MasteredWords) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
