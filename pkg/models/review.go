package models

import "time"

// ReviewEntry is one answered flashcard
type ReviewEntry struct {
	ItemID     string         `db:"item_id"`
	Correct    bool           `db:"correct"`
	From       LearningStatus `db:"from_status"`
	To         LearningStatus `db:"to_status"`
	ReviewedAt time.Time      `db:"reviewed_at"`
}

// DailyReviews aggregates the reviews of one calendar day
type DailyReviews struct {
	Day     time.Time
	Total   int
	Correct int
}
