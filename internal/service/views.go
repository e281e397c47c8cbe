package service

import (
	"quiz_backend/internal/model"
)

// ChoiceView never carries the correctness flag; it is what a learner sees while answering.
type ChoiceView struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

type QuestionView struct {
	ID           uint               `json:"id"`
	Content      string             `json:"content"`
	QuestionType model.QuestionType `json:"questionType"`
	Choices      []ChoiceView       `json:"choices,omitempty"`
}

// QuestionReview is the result-page form of a question, correct choices included.
type QuestionReview struct {
	ID           uint               `json:"id"`
	Content      string             `json:"content"`
	QuestionType model.QuestionType `json:"questionType"`
	Choices      []model.Choice     `json:"choices,omitempty"`
}

type AnswerView struct {
	SelectedChoiceIDs []uint `json:"selectedChoiceIds"`
	TextAnswer        string `json:"textAnswer"`
}

type ExamConfigView struct {
	TimeLimit          int              `json:"timeLimit"`
	ShowResultMode     model.ResultMode `json:"showResultMode"`
	RandomizeQuestions bool             `json:"randomizeQuestions"`
}

func newQuestionView(q *model.Question) *QuestionView {
	v := &QuestionView{ID: q.ID, Content: q.Content, QuestionType: q.QuestionType}
	if q.QuestionType.UsesChoices() {
		v.Choices = make([]ChoiceView, 0, len(q.Choices))
		for _, c := range q.Choices {
			v.Choices = append(v.Choices, ChoiceView{ID: c.ID, Content: c.Content})
		}
	}
	return v
}

func newQuestionReview(q *model.Question) *QuestionReview {
	return &QuestionReview{ID: q.ID, Content: q.Content, QuestionType: q.QuestionType, Choices: q.Choices}
}

func newAnswerView(a *model.UserAnswer) *AnswerView {
	if a == nil {
		return nil
	}
	return &AnswerView{SelectedChoiceIDs: a.SelectedChoiceIDs(), TextAnswer: a.TextAnswer}
}

func newExamConfigView(c *model.ExamConfiguration) ExamConfigView {
	return ExamConfigView{
		TimeLimit:          c.TimeLimit,
		ShowResultMode:     c.ShowResultMode,
		RandomizeQuestions: c.RandomizeQuestions,
	}
}
