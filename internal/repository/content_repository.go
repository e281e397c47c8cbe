package repository

import (
	"context"
	"errors"

	"quiz_backend/internal/model"

	"gorm.io/gorm"
)

// ContentRepository is the read side of modules, questions, choices and exam
// configuration, plus the bulk import used by seeding.
type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

type ModuleSummary struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

func (r *ContentRepository) GetModule(ctx context.Context, id uint) (*model.Module, error) {
	var m model.Module
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *ContentRepository) ListModules(ctx context.Context) ([]ModuleSummary, error) {
	var rows []ModuleSummary
	err := r.DB.WithContext(ctx).
		Model(&model.Module{}).
		Select("modules.id, modules.title, modules.description, COUNT(questions.id) AS question_count").
		Joins("LEFT JOIN questions ON questions.module_id = modules.id AND questions.deleted_at IS NULL").
		Group("modules.id, modules.title, modules.description").
		Order("modules.created_at, modules.id").
		Scan(&rows).Error
	return rows, err
}

// GetQuestionIDs returns the module's question ids in creation order.
func (r *ContentRepository) GetQuestionIDs(ctx context.Context, moduleID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).
		Model(&model.Question{}).
		Where("module_id = ?", moduleID).
		Order("created_at, id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ContentRepository) GetQuestion(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&q, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

// GetQuestionsByIDs loads questions with their choices. Ids that no longer
// exist are simply absent from the map.
func (r *ContentRepository) GetQuestionsByIDs(ctx context.Context, ids []uint) (map[uint]*model.Question, error) {
	result := make(map[uint]*model.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id IN ?", ids).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	for i := range questions {
		result[questions[i].ID] = &questions[i]
	}
	return result, nil
}

// GetExamConfig falls back to the defaults when the module has no configuration row.
func (r *ContentRepository) GetExamConfig(ctx context.Context, moduleID uint) (*model.ExamConfiguration, error) {
	var cfg model.ExamConfiguration
	err := r.DB.WithContext(ctx).Where("module_id = ?", moduleID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultExamConfig(moduleID), nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateModuleTree inserts a module with its configuration, questions and choices.
func (r *ContentRepository) CreateModuleTree(ctx context.Context, m *model.Module) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := m.Questions
		examConfig := m.ExamConfig
		m.Questions = nil
		m.ExamConfig = nil
		defer func() {
			m.Questions = questions
			m.ExamConfig = examConfig
		}()

		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if examConfig != nil {
			examConfig.ModuleID = m.ID
			if err := tx.Create(examConfig).Error; err != nil {
				return err
			}
		}
		// 逐题插入，保证 id 顺序即创建顺序
		for i := range questions {
			questions[i].ModuleID = m.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ContentRepository) ModuleExists(ctx context.Context, title string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Module{}).Where("title = ?", title).Count(&count).Error
	return count > 0, err
}
