package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptFinalized  AttemptStatus = "finalized"
)

// FinishReason records which path finalized an attempt.
type FinishReason string

const (
	FinishCompleted    FinishReason = "completed"     // 提交最后一题
	FinishExpired      FinishReason = "expired"       // 访问时发现超时
	FinishExplicit     FinishReason = "finished"      // 主动交卷
	FinishResultViewed FinishReason = "result_viewed" // 未完成时查看成绩
	FinishSwept        FinishReason = "swept"         // 后台超时扫描
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	UserID               uint                      `gorm:"index:idx_attempt_user_module;not null" json:"userId"`
	ModuleID             uint                      `gorm:"index:idx_attempt_user_module;not null" json:"moduleId"`
	StartTime            time.Time                 `gorm:"not null" json:"startTime"`
	EndTime              *time.Time                `json:"endTime,omitempty"`
	Score                float64                   `gorm:"default:0" json:"score"`
	QuestionOrder        datatypes.JSONSlice[uint] `json:"questionOrder"`
	CurrentQuestionIndex int                       `gorm:"default:0" json:"currentQuestionIndex"`
	Status               AttemptStatus             `gorm:"size:20;index;default:'in_progress'" json:"status"`
	FinishReason         FinishReason              `gorm:"size:20" json:"finishReason,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) IsFinalized() bool {
	return a.EndTime != nil
}

func (a *QuizAttempt) TotalQuestions() int {
	return len(a.QuestionOrder)
}

// QuestionIDAt resolves a 1-based position in the attempt's question order.
func (a *QuizAttempt) QuestionIDAt(index int) (uint, bool) {
	if index < 1 || index > len(a.QuestionOrder) {
		return 0, false
	}
	return a.QuestionOrder[index-1], true
}
