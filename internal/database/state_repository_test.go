package database

import (
	"context"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/engcards/internal/config"
	"github.com/example/engcards/pkg/models"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStateRepository_LoadEmpty(t *testing.T) {
	repo := NewStateRepository(setupTestDB(t))

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Words)
	assert.Empty(t, state.Sentences)
	assert.Equal(t, models.Statistics{}, state.Stats)
}

func TestStateRepository_SaveLoadClear(t *testing.T) {
	repo := NewStateRepository(setupTestDB(t))
	ctx := context.Background()

	reviewed := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	state := &models.State{
		Words: []models.Word{
			{ID: "w1", Term: "thrive", Definition: "grow well", Status: models.StatusReview, ReviewCount: 2, NextReviewDate: &reviewed},
		},
		Sentences: []models.Sentence{
			{ID: "s1", Pattern: "Do you mind if ~", Original: "Do you mind if I sit here?", Translation: "여기 앉아도 될까요?", Status: models.StatusNew},
		},
		Stats: models.Statistics{TotalWords: 1, TotalSentences: 1, StreakDays: 3, LastStudyDate: &reviewed},
	}
	require.NoError(t, repo.Save(ctx, state))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Words, 1)
	assert.Equal(t, "thrive", loaded.Words[0].Term)
	assert.Equal(t, models.StatusReview, loaded.Words[0].Status)
	require.NotNil(t, loaded.Words[0].NextReviewDate)
	assert.True(t, reviewed.Equal(*loaded.Words[0].NextReviewDate))
	assert.Equal(t, 3, loaded.Stats.StreakDays)
	require.Len(t, loaded.Sentences, 1)

	state.Words[0].Status = models.StatusMastered
	require.NoError(t, repo.Save(ctx, state))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMastered, loaded.Words[0].Status)

	require.NoError(t, repo.Clear(ctx))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Words)
}

func TestStateRepository_KeysAreIsolated(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := NewStateRepositoryWithKey(db, "a")
	b := NewStateRepositoryWithKey(db, "b")

	require.NoError(t, a.Save(ctx, &models.State{Words: []models.Word{{ID: "w1"}}}))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Words)

	require.NoError(t, b.Clear(ctx))
	loaded, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Words, 1)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestStatementBuilder_PlaceholdersFollowDriver(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		want   string
	}{
		{name: "sqlite", driver: DriverSQLite, want: "SELECT payload FROM app_state WHERE state_key = ?"},
		{name: "postgres", driver: DriverPostgres, want: "SELECT payload FROM app_state WHERE state_key = $1"},
	}

	base := setupTestDB(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := sqlx.NewDb(base.DB, tt.driver)
			query, args, err := statementBuilder(db).
				Select("payload").
				From("app_state").
				Where(sq.Eq{"state_key": "k"}).
				ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, []interface{}{"k"}, args)
		})
	}
}
