package repository

import (
	"context"
	"errors"
	"time"

	"quiz_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// mutableColumns 是作答过程中允许修改的字段；question_order、start_time 创建后不再写入
var mutableColumns = []string{"current_question_index", "end_time", "score", "status", "finish_reason"}

func (r *AttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

// Save persists the mutable fields of an attempt.
func (r *AttemptRepository) Save(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).
		Model(attempt).
		Select(mutableColumns).
		Updates(attempt).Error
}

// MarkFinalized writes the finalized state only if the row is still open, so a
// concurrent finalizer (another instance's sweep, say) can not overwrite end_time.
// It reports whether this call performed the transition.
func (r *AttemptRepository) MarkFinalized(ctx context.Context, attempt *model.QuizAttempt) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.QuizAttempt{}).
		Where("id = ? AND end_time IS NULL", attempt.ID).
		Updates(map[string]interface{}{
			"end_time":               attempt.EndTime,
			"score":                  attempt.Score,
			"status":                 attempt.Status,
			"finish_reason":          attempt.FinishReason,
			"current_question_index": attempt.CurrentQuestionIndex,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AttemptRepository) FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindOwned loads an attempt belonging to userID. A foreign attempt is reported
// exactly like a missing one.
func (r *AttemptRepository) FindOwned(ctx context.Context, id, userID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindActive returns the user's unfinished attempt on the module, or nil.
func (r *AttemptRepository) FindActive(ctx context.Context, userID, moduleID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ? AND end_time IS NULL", userID, moduleID).
		Order("start_time DESC, id DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type TimedAttempt struct {
	model.QuizAttempt
	TimeLimit int
}

// ListInProgressTimed returns open attempts whose module has a time limit.
func (r *AttemptRepository) ListInProgressTimed(ctx context.Context) ([]TimedAttempt, error) {
	var rows []TimedAttempt
	err := r.DB.WithContext(ctx).
		Model(&model.QuizAttempt{}).
		Select("quiz_attempts.*, exam_configurations.time_limit AS time_limit").
		Joins("JOIN exam_configurations ON exam_configurations.module_id = quiz_attempts.module_id AND exam_configurations.deleted_at IS NULL").
		Where("quiz_attempts.end_time IS NULL AND exam_configurations.time_limit > 0").
		Scan(&rows).Error
	return rows, err
}

// Deadline is the moment the attempt runs out of time.
func (t *TimedAttempt) Deadline() time.Time {
	return t.StartTime.Add(time.Duration(t.TimeLimit) * time.Minute)
}

type AttemptFilter struct {
	ModuleID uint
	UserID   uint
	Page     int
	Limit    int
}

func (r *AttemptRepository) List(ctx context.Context, f AttemptFilter) ([]model.QuizAttempt, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.QuizAttempt{})
	if f.ModuleID > 0 {
		query = query.Where("module_id = ?", f.ModuleID)
	}
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []model.QuizAttempt
	offset := (f.Page - 1) * f.Limit
	err := query.Order("start_time DESC, id DESC").Offset(offset).Limit(f.Limit).Find(&attempts).Error
	return attempts, total, err
}

type ModuleBestScore struct {
	ModuleID  uint    `json:"moduleId"`
	Title     string  `json:"title"`
	BestScore float64 `json:"bestScore"`
}

// BestScores returns the user's highest score per module, ordered by module title.
func (r *AttemptRepository) BestScores(ctx context.Context, userID uint) ([]ModuleBestScore, error) {
	var rows []ModuleBestScore
	err := r.DB.WithContext(ctx).
		Model(&model.QuizAttempt{}).
		Select("quiz_attempts.module_id AS module_id, modules.title AS title, MAX(quiz_attempts.score) AS best_score").
		Joins("JOIN modules ON modules.id = quiz_attempts.module_id").
		Where("quiz_attempts.user_id = ?", userID).
		Group("quiz_attempts.module_id, modules.title").
		Order("modules.title").
		Scan(&rows).Error
	return rows, err
}
