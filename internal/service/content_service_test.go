package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportModuleValidation(t *testing.T) {
	svc := NewContentService(repository.NewContentRepository(newTestDB(t)))
	ctx := context.Background()

	tests := []struct {
		name string
		req  ModuleImport
	}{
		{"missing title", ModuleImport{Title: "  "}},
		{"unknown type", ModuleImport{Title: "m", Questions: []QuestionImport{{Content: "q", Type: "essay"}}}},
		{"choice question without choices", ModuleImport{Title: "m", Questions: []QuestionImport{{Content: "q", Type: "single"}}}},
		{"text question with choices", ModuleImport{Title: "m", Questions: []QuestionImport{{Content: "q", Type: "text", Choices: []ChoiceImport{{Content: "a"}}}}}},
		{"bad result mode", ModuleImport{Title: "m", Config: &ExamConfigImport{ShowResultMode: "later"}}},
		{"negative time limit", ModuleImport{Title: "m", Config: &ExamConfigImport{TimeLimit: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportModule(ctx, tt.req)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}

	modules, err := svc.ListModules(ctx)
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestImportModuleStoresTree(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewContentRepository(db)
	svc := NewContentService(repo)
	ctx := context.Background()

	m, err := svc.ImportModule(ctx, ModuleImport{
		Title:  "Algebra",
		Config: &ExamConfigImport{TimeLimit: 5, ShowResultMode: "hidden"},
		Questions: []QuestionImport{
			{Content: "1+1", Choices: []ChoiceImport{{Content: "2", IsCorrect: true}, {Content: "3"}}},
			{Content: "why", Type: "text"},
		},
	})
	require.NoError(t, err)

	ids, err := repo.GetQuestionIDs(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{m.Questions[0].ID, m.Questions[1].ID}, ids)

	q, err := repo.GetQuestion(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.QuestionSingle, q.QuestionType)
	assert.Len(t, q.Choices, 2)

	cfg, err := repo.GetExamConfig(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TimeLimit)
	assert.Equal(t, model.ResultHidden, cfg.ShowResultMode)

	modules, err := svc.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, 2, modules[0].QuestionCount)
}

func TestLoadSeedFileSkipsExistingModules(t *testing.T) {
	svc := NewContentService(repository.NewContentRepository(newTestDB(t)))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
modules:
  - title: Go basics
    config:
      time_limit: 10
    questions:
      - content: Which keyword declares a constant?
        type: single
        choices:
          - content: const
            is_correct: true
          - content: let
      - content: Explain slices.
        type: text
`), 0o644))

	n, err := svc.LoadSeedFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.LoadSeedFile(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n)

	modules, err := svc.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "Go basics", modules[0].Title)
	assert.Equal(t, 2, modules[0].QuestionCount)
}

func TestLoadSeedFileBundledExample(t *testing.T) {
	svc := NewContentService(repository.NewContentRepository(newTestDB(t)))

	n, err := svc.LoadSeedFile(context.Background(), filepath.Join("..", "..", "configs", "seed_modules.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
