package model

// UserAnswer 每次作答中每道题最多一条记录，首次访问题目时创建
// swagger:model UserAnswer
type UserAnswer struct {
	BaseModel
	AttemptID       uint     `gorm:"uniqueIndex:idx_answer_attempt_question;not null" json:"attemptId"`
	QuestionID      uint     `gorm:"uniqueIndex:idx_answer_attempt_question;not null" json:"questionId"`
	SelectedChoices []Choice `gorm:"many2many:user_answer_choices" json:"selectedChoices"`
	TextAnswer      string   `gorm:"type:text" json:"textAnswer"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}

func (a *UserAnswer) SelectedChoiceIDs() []uint {
	ids := make([]uint, 0, len(a.SelectedChoices))
	for _, c := range a.SelectedChoices {
		ids = append(ids, c.ID)
	}
	return ids
}
