package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz_backend/internal/config"
	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/pkg/database"
	"quiz_backend/pkg/locker"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db       *gorm.DB
	content  *repository.ContentRepository
	attempts *repository.AttemptRepository
	answers  *repository.AnswerRepository
	engine   *AttemptService
	clock    *fakeClock
	ctx      context.Context
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:       db,
		content:  repository.NewContentRepository(db),
		attempts: repository.NewAttemptRepository(db),
		answers:  repository.NewAnswerRepository(db),
		clock:    &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		ctx:      context.Background(),
	}
	f.engine = NewAttemptService(f.content, f.attempts, f.answers, locker.NewLocalLocker(), config.QuizConfig{})
	f.engine.Now = f.clock.Now
	f.engine.SetRand(rand.New(rand.NewPCG(7, 11)))
	return f
}

func newQuestion(qt model.QuestionType, content string, choices ...model.Choice) model.Question {
	return model.Question{Content: content, QuestionType: qt, Choices: choices}
}

func opt(content string, correct bool) model.Choice {
	return model.Choice{Content: content, IsCorrect: correct}
}

// seedModule stores a module and returns it with question and choice ids filled in.
func (f *fixture) seedModule(t *testing.T, cfg *model.ExamConfiguration, questions ...model.Question) *model.Module {
	t.Helper()
	m := &model.Module{Title: fmt.Sprintf("module-%d", time.Now().UnixNano()), ExamConfig: cfg, Questions: questions}
	require.NoError(t, f.content.CreateModuleTree(f.ctx, m))
	return m
}

// threeQuestionModule: single, multiple and text, in that order.
func (f *fixture) threeQuestionModule(t *testing.T, cfg *model.ExamConfiguration) *model.Module {
	return f.seedModule(t, cfg,
		newQuestion(model.QuestionSingle, "2+2", opt("4", true), opt("5", false)),
		newQuestion(model.QuestionMultiple, "primes", opt("2", true), opt("3", true), opt("4", false)),
		newQuestion(model.QuestionText, "explain"),
	)
}

func choiceIDs(q model.Question, correct bool) []uint {
	var ids []uint
	for _, c := range q.Choices {
		if c.IsCorrect == correct {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func textPtr(s string) *string {
	return &s
}

func (f *fixture) reload(t *testing.T, id uint) *model.QuizAttempt {
	t.Helper()
	a, err := f.attempts.FindByID(f.ctx, id)
	require.NoError(t, err)
	return a
}

func (f *fixture) answerCount(t *testing.T, attemptID uint) int {
	t.Helper()
	answers, err := f.answers.ListByAttempt(f.ctx, attemptID)
	require.NoError(t, err)
	return len(answers)
}
