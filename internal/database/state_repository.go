package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/example/engcards/pkg/models"
)

const stateTable = "app_state"

// StateRepository stores the whole catalog as one JSON record keyed by name
type StateRepository struct {
	db  *sqlx.DB
	key string
	sb  sq.StatementBuilderType
}

// NewStateRepository creates a repository for the default state key
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return NewStateRepositoryWithKey(db, models.StateKey)
}

// NewStateRepositoryWithKey creates a repository for a custom state key
func NewStateRepositoryWithKey(db *sqlx.DB, key string) *StateRepository {
	return &StateRepository{
		db:  db,
		key: key,
		sb:  statementBuilder(db),
	}
}

// Load returns the stored state, or an empty one when nothing was saved yet
func (r *StateRepository) Load(ctx context.Context) (*models.State, error) {
	query, args, err := r.sb.
		Select("payload").
		From(stateTable).
		Where(sq.Eq{"state_key": r.key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build state query: %w", err)
	}

	var payload string
	err = r.db.GetContext(ctx, &payload, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	var state models.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &state, nil
}

// Save inserts or replaces the stored state
func (r *StateRepository) Save(ctx context.Context, state *models.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	query, args, err := r.sb.
		Insert(stateTable).
		Columns("state_key", "payload", "updated_at").
		Values(r.key, string(data), time.Now().UTC()).
		Suffix("ON CONFLICT (state_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build state upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Clear removes the stored state
func (r *StateRepository) Clear(ctx context.Context) error {
	query, args, err := r.sb.
		Delete(stateTable).
		Where(sq.Eq{"state_key": r.key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build state delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}
