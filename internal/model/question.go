package model

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionText     QuestionType = "text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingle, QuestionMultiple, QuestionText:
		return true
	}
	return false
}

// UsesChoices 单选/多选题依赖选项，简答题只有文本答案
func (t QuestionType) UsesChoices() bool {
	return t == QuestionSingle || t == QuestionMultiple
}

// swagger:model Question
type Question struct {
	BaseModel
	ModuleID     uint         `gorm:"index;not null" json:"moduleId"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	QuestionType QuestionType `gorm:"size:10;default:'single'" json:"questionType"`
	Choices      []Choice     `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectChoiceIDs returns the ids of the choices flagged correct.
func (q *Question) CorrectChoiceIDs() map[uint]struct{} {
	ids := make(map[uint]struct{})
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

func (q *Question) HasChoice(id uint) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// swagger:model Choice
type Choice struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Content    string `gorm:"size:255;not null" json:"content"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (Choice) TableName() string {
	return "choices"
}
