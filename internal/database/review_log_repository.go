package database

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/example/engcards/pkg/models"
)

const reviewLogTable = "review_log"

// ReviewLogRepository keeps the history of answered flashcards
type ReviewLogRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db, sb: statementBuilder(db)}
}

// Record inserts one review
func (r *ReviewLogRepository) Record(ctx context.Context, e models.ReviewEntry) error {
	query, args, err := r.sb.
		Insert(reviewLogTable).
		Columns("item_id", "correct", "from_status", "to_status", "reviewed_at").
		Values(e.ItemID, e.Correct, e.From.String(), e.To.String(), e.ReviewedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build review insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	return nil
}

// Since returns the reviews made at or after since, oldest first
func (r *ReviewLogRepository) Since(ctx context.Context, since time.Time) ([]models.ReviewEntry, error) {
	query, args, err := r.sb.
		Select("item_id", "correct", "from_status", "to_status", "reviewed_at").
		From(reviewLogTable).
		Where(sq.GtOrEq{"reviewed_at": since.UTC()}).
		OrderBy("reviewed_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review query: %w", err)
	}

	var entries []models.ReviewEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return entries, nil
}

// Daily groups the reviews made at or after since by calendar day in loc.
// Days without reviews are omitted.
func (r *ReviewLogRepository) Daily(ctx context.Context, since time.Time, loc *time.Location) ([]models.DailyReviews, error) {
	entries, err := r.Since(ctx, since)
	if err != nil {
		return nil, err
	}

	var days []models.DailyReviews
	for _, e := range entries {
		t := e.ReviewedAt.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if n := len(days); n == 0 || !days[n-1].Day.Equal(day) {
			days = append(days, models.DailyReviews{Day: day})
		}
		d := &days[len(days)-1]
		d.Total++
		if e.Correct {
			d.Correct++
		}
	}
	return days, nil
}

// Clear removes the whole history
func (r *ReviewLogRepository) Clear(ctx context.Context) error {
	query, args, err := r.sb.Delete(reviewLogTable).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build review delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear reviews: %w", err)
	}
	return nil
}
