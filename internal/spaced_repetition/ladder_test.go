package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/engcards/pkg/models"
)

func TestLadder_Next(t *testing.T) {
	t.Parallel()

	l := NewLadder()
	tests := []struct {
		name    string
		current models.LearningStatus
		correct bool
		want    models.LearningStatus
	}{
		{"new correct", models.StatusNew, true, models.StatusLearning},
		{"learning correct", models.StatusLearning, true, models.StatusReview},
		{"review correct", models.StatusReview, true, models.StatusMastered},
		{"mastered correct stays", models.StatusMastered, true, models.StatusMastered},
		{"new wrong", models.StatusNew, false, models.StatusLearning},
		{"learning wrong", models.StatusLearning, false, models.StatusLearning},
		{"review wrong", models.StatusReview, false, models.StatusLearning},
		{"mastered wrong", models.StatusMastered, false, models.StatusLearning},
		{"unknown correct", models.LearningStatus("x"), true, models.StatusLearning},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, l.Next(tt.current, tt.correct))
		})
	}
}

func TestLadder_NextNeverSkipsOrRegressesOnCorrect(t *testing.T) {
	t.Parallel()

	l := NewLadder()
	status := models.StatusNew
	for i := 0; i < 10; i++ {
		next := l.Next(status, true)
		step := next.Rank() - status.Rank()
		assert.True(t, step == 0 || step == 1, "step %d from %s to %s", step, status, next)
		if status != models.StatusMastered {
			assert.Equal(t, 1, step)
		}
		status = next
	}
	assert.Equal(t, models.StatusMastered, status)
}

func TestLadder_NextReviewDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now, NewLadder().NextReviewDate(now))
}

func TestLadder_SelectStudySet(t *testing.T) {
	t.Parallel()

	words := []models.Word{
		{ID: "m1", Status: models.StatusMastered},
		{ID: "n1", Status: models.StatusNew},
		{ID: "m2", Status: models.StatusMastered},
		{ID: "l1", Status: models.StatusLearning},
		{ID: "m3", Status: models.StatusMastered},
		{ID: "r1", Status: models.StatusReview},
	}

	set := NewLadder().SelectStudySet(words)

	ids := make([]string, 0, len(set))
	for _, w := range set {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"n1", "l1", "r1", "m1", "m2"}, ids)
}

func TestLadder_SelectStudySetZeroQuota(t *testing.T) {
	t.Parallel()

	l := &Ladder{MasteredQuota: 0}
	set := l.SelectStudySet([]models.Word{{ID: "m", Status: models.StatusMastered}})
	assert.Empty(t, set)
}

func TestCountMastered(t *testing.T) {
	t.Parallel()

	mw, ms := CountMastered(
		[]models.Word{{Status: models.StatusMastered}, {Status: models.StatusReview}, {Status: models.StatusMastered}},
		[]models.Sentence{{Status: models.StatusMastered}, {Status: models.StatusNew}},
	)
	assert.Equal(t, 2, mw)
	assert.Equal(t, 1, ms)
}
