package service

import (
	"context"
	"testing"
	"time"

	"quiz_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepFinalizesOverdueTimedAttempts(t *testing.T) {
	f := newFixture(t)
	timed := f.threeQuestionModule(t, &model.ExamConfiguration{TimeLimit: 1, ShowResultMode: model.ResultAfterSubmit})
	untimed := f.threeQuestionModule(t, nil)

	a1, err := f.engine.StartAttempt(f.ctx, 1, timed.ID)
	require.NoError(t, err)
	a2, err := f.engine.StartAttempt(f.ctx, 2, timed.ID)
	require.NoError(t, err)
	open, err := f.engine.StartAttempt(f.ctx, 3, untimed.ID)
	require.NoError(t, err)

	sweeper := NewExpirySweeper(f.attempts, f.engine, "@every 1m")

	f.clock.Advance(30 * time.Second)
	n, err := sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(31 * time.Second)
	n, err = sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uint{a1.Attempt.ID, a2.Attempt.ID} {
		a := f.reload(t, id)
		assert.Equal(t, model.FinishSwept, a.FinishReason)
		assert.Equal(t, model.AttemptFinalized, a.Status)
	}
	assert.False(t, f.reload(t, open.Attempt.ID).IsFinalized())

	n, err = sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already swept attempts are left alone")
}

// staleAttempts serves one outdated copy of an attempt, the view a second
// sweeper has when another instance finalizes the row first.
type staleAttempts struct {
	AttemptStore
	snapshot *model.QuizAttempt
}

func (s *staleAttempts) FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error) {
	if s.snapshot != nil && s.snapshot.ID == id {
		cp := *s.snapshot
		s.snapshot = nil
		return &cp, nil
	}
	return s.AttemptStore.FindByID(ctx, id)
}

func TestExpireIfOverdueReportsOnlyItsOwnTransition(t *testing.T) {
	f := newFixture(t)
	timed := f.threeQuestionModule(t, &model.ExamConfiguration{TimeLimit: 1, ShowResultMode: model.ResultAfterSubmit})
	start, err := f.engine.StartAttempt(f.ctx, alice, timed.ID)
	require.NoError(t, err)
	id := start.Attempt.ID
	before := f.reload(t, id)

	f.clock.Advance(2 * time.Minute)
	done, err := f.engine.ExpireIfOverdue(f.ctx, id, model.FinishSwept)
	require.NoError(t, err)
	assert.True(t, done)

	f.engine.Attempts = &staleAttempts{AttemptStore: f.attempts, snapshot: before}
	done, err = f.engine.ExpireIfOverdue(f.ctx, id, model.FinishSwept)
	require.NoError(t, err)
	assert.False(t, done, "losing the finalize race with the same reason is not a transition")

	after := f.reload(t, id)
	assert.Equal(t, model.FinishSwept, after.FinishReason)
	assert.Equal(t, model.AttemptFinalized, after.Status)
}

func TestSweeperStartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)

	assert.Error(t, NewExpirySweeper(f.attempts, f.engine, "not a schedule").Start())

	off := NewExpirySweeper(f.attempts, f.engine, "")
	assert.NoError(t, off.Start())
	off.Stop()
}
