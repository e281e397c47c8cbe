package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type ContentService struct {
	ContentRepo *repository.ContentRepository
}

func NewContentService(contentRepo *repository.ContentRepository) *ContentService {
	return &ContentService{ContentRepo: contentRepo}
}

// ModuleImport 批量导入的模块结构，既用于管理接口的 JSON，也用于种子 YAML
// swagger:model ModuleImport
type ModuleImport struct {
	Title       string            `json:"title" yaml:"title" binding:"required"`
	Description string            `json:"description" yaml:"description"`
	Config      *ExamConfigImport `json:"config,omitempty" yaml:"config"`
	Questions   []QuestionImport  `json:"questions" yaml:"questions"`
}

type ExamConfigImport struct {
	TimeLimit          int    `json:"timeLimit" yaml:"time_limit"`
	ShowResultMode     string `json:"showResultMode" yaml:"show_result_mode"`
	RandomizeQuestions bool   `json:"randomizeQuestions" yaml:"randomize_questions"`
}

type QuestionImport struct {
	Content string         `json:"content" yaml:"content"`
	Type    string         `json:"type" yaml:"type"`
	Choices []ChoiceImport `json:"choices" yaml:"choices"`
}

type ChoiceImport struct {
	Content   string `json:"content" yaml:"content"`
	IsCorrect bool   `json:"isCorrect" yaml:"is_correct"`
}

// SeedFile is the top level of a YAML content file.
type SeedFile struct {
	Modules []ModuleImport `yaml:"modules"`
}

func (s *ContentService) ListModules(ctx context.Context) ([]repository.ModuleSummary, error) {
	return s.ContentRepo.ListModules(ctx)
}

// ImportModule validates the payload and stores the whole module tree in one transaction.
func (s *ContentService) ImportModule(ctx context.Context, req ModuleImport) (*model.Module, error) {
	m, err := buildModule(req)
	if err != nil {
		return nil, err
	}
	if err := s.ContentRepo.CreateModuleTree(ctx, m); err != nil {
		return nil, fmt.Errorf("import module %q: %w", req.Title, err)
	}
	logger.Log.Info("module imported",
		zap.Uint("moduleId", m.ID),
		zap.String("title", m.Title),
		zap.Int("questions", len(m.Questions)))
	return m, nil
}

func buildModule(req ModuleImport) (*model.Module, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: module title is required", util.ErrInvalidInput)
	}

	m := &model.Module{Title: title, Description: req.Description}

	if req.Config != nil {
		cfg := model.DefaultExamConfig(0)
		if req.Config.TimeLimit < 0 {
			return nil, fmt.Errorf("%w: time limit can not be negative", util.ErrInvalidInput)
		}
		cfg.TimeLimit = req.Config.TimeLimit
		cfg.RandomizeQuestions = req.Config.RandomizeQuestions
		if req.Config.ShowResultMode != "" {
			mode := model.ResultMode(req.Config.ShowResultMode)
			if !mode.Valid() {
				return nil, fmt.Errorf("%w: unknown result mode %q", util.ErrInvalidInput, req.Config.ShowResultMode)
			}
			cfg.ShowResultMode = mode
		}
		m.ExamConfig = cfg
	}

	for i, q := range req.Questions {
		qt := model.QuestionType(q.Type)
		if q.Type == "" {
			qt = model.QuestionSingle
		}
		if !qt.Valid() {
			return nil, fmt.Errorf("%w: question %d has unknown type %q", util.ErrInvalidInput, i+1, q.Type)
		}
		if strings.TrimSpace(q.Content) == "" {
			return nil, fmt.Errorf("%w: question %d has no content", util.ErrInvalidInput, i+1)
		}
		if qt.UsesChoices() && len(q.Choices) == 0 {
			return nil, fmt.Errorf("%w: question %d needs choices", util.ErrInvalidInput, i+1)
		}
		if !qt.UsesChoices() && len(q.Choices) > 0 {
			return nil, fmt.Errorf("%w: text question %d can not have choices", util.ErrInvalidInput, i+1)
		}

		question := model.Question{Content: q.Content, QuestionType: qt}
		for _, c := range q.Choices {
			question.Choices = append(question.Choices, model.Choice{Content: c.Content, IsCorrect: c.IsCorrect})
		}
		m.Questions = append(m.Questions, question)
	}
	return m, nil
}

// LoadSeedFile imports every module of a YAML file, skipping titles that already exist.
func (s *ContentService) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	imported := 0
	for _, mod := range seed.Modules {
		exists, err := s.ContentRepo.ModuleExists(ctx, strings.TrimSpace(mod.Title))
		if err != nil {
			return imported, err
		}
		if exists {
			logger.Log.Info("seed module already present, skipped", zap.String("title", mod.Title))
			continue
		}
		if _, err := s.ImportModule(ctx, mod); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
