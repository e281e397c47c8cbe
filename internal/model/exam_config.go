package model

import "time"

type ResultMode string

const (
	ResultImmediate   ResultMode = "immediate"
	ResultAfterSubmit ResultMode = "after_submit"
	ResultHidden      ResultMode = "hidden"
)

func (m ResultMode) Valid() bool {
	switch m {
	case ResultImmediate, ResultAfterSubmit, ResultHidden:
		return true
	}
	return false
}

// ExamConfiguration 模块的考试配置，一个模块最多一条
// swagger:model ExamConfiguration
type ExamConfiguration struct {
	BaseModel
	ModuleID           uint       `gorm:"uniqueIndex;not null" json:"moduleId"`
	TimeLimit          int        `gorm:"default:0" json:"timeLimit"` // 分钟，0 表示不限时
	ShowResultMode     ResultMode `gorm:"size:20;default:'after_submit'" json:"showResultMode"`
	RandomizeQuestions bool       `gorm:"default:false" json:"randomizeQuestions"`
}

func (ExamConfiguration) TableName() string {
	return "exam_configurations"
}

// DefaultExamConfig is what a module without a configuration row behaves like.
func DefaultExamConfig(moduleID uint) *ExamConfiguration {
	return &ExamConfiguration{
		ModuleID:       moduleID,
		TimeLimit:      0,
		ShowResultMode: ResultAfterSubmit,
	}
}

func (c *ExamConfiguration) HasTimeLimit() bool {
	return c.TimeLimit > 0
}

func (c *ExamConfiguration) TimeLimitDuration() time.Duration {
	return time.Duration(c.TimeLimit) * time.Minute
}
