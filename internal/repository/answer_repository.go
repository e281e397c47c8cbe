package repository

import (
	"context"
	"errors"

	"quiz_backend/internal/model"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// GetOrCreate returns the answer row for (attempt, question), creating an empty one on first visit.
func (r *AnswerRepository) GetOrCreate(ctx context.Context, attemptID, questionID uint) (*model.UserAnswer, error) {
	var answer model.UserAnswer
	err := r.DB.WithContext(ctx).
		Preload("SelectedChoices").
		Where(model.UserAnswer{AttemptID: attemptID, QuestionID: questionID}).
		FirstOrCreate(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// ReplaceSelectedChoices overwrites the selection; nothing of the previous set survives.
func (r *AnswerRepository) ReplaceSelectedChoices(ctx context.Context, answer *model.UserAnswer, choices []model.Choice) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assoc := tx.Model(answer).Association("SelectedChoices")
		if len(choices) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(choices)
	})
}

func (r *AnswerRepository) SetText(ctx context.Context, answer *model.UserAnswer, text string) error {
	if err := r.DB.WithContext(ctx).Model(answer).Update("text_answer", text).Error; err != nil {
		return err
	}
	answer.TextAnswer = text
	return nil
}

// Find returns nil when the question was never visited in this attempt.
func (r *AnswerRepository) Find(ctx context.Context, attemptID, questionID uint) (*model.UserAnswer, error) {
	var answer model.UserAnswer
	err := r.DB.WithContext(ctx).
		Preload("SelectedChoices").
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// ListByAttempt returns every answer of the attempt keyed by question id.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uint) (map[uint]*model.UserAnswer, error) {
	var answers []model.UserAnswer
	err := r.DB.WithContext(ctx).
		Preload("SelectedChoices").
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uint]*model.UserAnswer, len(answers))
	for i := range answers {
		result[answers[i].QuestionID] = &answers[i]
	}
	return result, nil
}
