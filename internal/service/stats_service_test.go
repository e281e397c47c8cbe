package service

import (
	"testing"
	"time"

	"quiz_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverviewAndAdminListing(t *testing.T) {
	f := newFixture(t)
	stats := NewStatsService(f.content, f.attempts)
	m := f.threeQuestionModule(t, nil)

	first, err := f.engine.StartAttempt(f.ctx, alice, m.ID)
	require.NoError(t, err)
	_, err = f.engine.ViewOrAnswerQuestion(f.ctx, first.Attempt.ID, alice, 1, &Submission{ChoiceIDs: choiceIDs(m.Questions[0], true)})
	require.NoError(t, err)
	_, err = f.engine.FinishAttempt(f.ctx, first.Attempt.ID, alice)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	second, err := f.engine.StartAttempt(f.ctx, alice, m.ID)
	require.NoError(t, err)
	_, err = f.engine.StartAttempt(f.ctx, bob, m.ID)
	require.NoError(t, err)

	ov, err := stats.Overview(f.ctx, alice)
	require.NoError(t, err)
	require.Len(t, ov.Modules, 1)
	assert.Equal(t, 3, ov.Modules[0].QuestionCount)
	require.Len(t, ov.Attempts, 2)
	assert.Equal(t, second.Attempt.ID, ov.Attempts[0].ID, "newest first")
	require.Len(t, ov.BestScores, 1)
	assert.InDelta(t, 100.0/3, ov.BestScores[0].BestScore, 1e-9)

	page, err := stats.ListAttempts(f.ctx, repository.AttemptFilter{ModuleID: m.ID, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.Limit)

	page, err = stats.ListAttempts(f.ctx, repository.AttemptFilter{UserID: bob})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
