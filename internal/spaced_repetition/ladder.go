package spaced_repetition

import (
	"time"

	"github.com/example/engcards/pkg/models"
)

// DefaultMasteredQuota is how many mastered words are mixed back into a study set
const DefaultMasteredQuota = 2

// Ladder implements the four-stage status progression used for review feedback
type Ladder struct {
	// Number of mastered words appended to a study set for refreshing
	MasteredQuota int
}

// NewLadder creates a Ladder with default settings
func NewLadder() *Ladder {
	return &Ladder{
		MasteredQuota: DefaultMasteredQuota,
	}
}

// Next returns the status an item moves to after a review.
// A correct answer climbs one stage and stops at mastered; a wrong answer
// always lands on learning, including from new and from mastered.
func (l *Ladder) Next(current models.LearningStatus, wasCorrect bool) models.LearningStatus {
	if !wasCorrect {
		return models.StatusLearning
	}

	switch current {
	case models.StatusNew:
		return models.StatusLearning
	case models.StatusLearning:
		return models.StatusReview
	case models.StatusReview, models.StatusMastered:
		return models.StatusMastered
	}

	// Unknown stages are treated as new
	return models.StatusLearning
}

// NextReviewDate returns when the item should be shown again.
// There is no interval scheduling yet, items are due immediately.
func (l *Ladder) NextReviewDate(now time.Time) time.Time {
	return now
}

// SelectStudySet returns the words for a flashcard session: every word that
// is not mastered, in catalog order, followed by at most MasteredQuota mastered words
func (l *Ladder) SelectStudySet(words []models.Word) []models.Word {
	quota := l.MasteredQuota
	if quota < 0 {
		quota = 0
	}

	set := make([]models.Word, 0, len(words))
	var mastered []models.Word
	for _, w := range words {
		if w.Status == models.StatusMastered {
			if len(mastered) < quota {
				mastered = append(mastered, w)
			}
			continue
		}
		set = append(set, w)
	}

	return append(set, mastered...)
}

// CountMastered returns how many words and sentences are mastered
func CountMastered(words []models.Word, sentences []models.Sentence) (int, int) {
	var mw, ms int
	for _, w := range words {
		if w.Status == models.StatusMastered {
			mw++
		}
	}
	for _, s := range sentences {
		if s.Status == models.StatusMastered {
			ms++
		}
	}
	return mw, ms
}
