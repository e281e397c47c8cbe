package service

import (
	"quiz_backend/internal/model"
)

// ScoreOptions tunes ComputeResult.
type ScoreOptions struct {
	// 简答题不参与自动评分；为 true 时同时从分母中剔除
	ExcludeTextFromScore bool
}

type QuestionResult struct {
	QuestionID    uint               `json:"questionId"`
	Question      *QuestionReview    `json:"question"`
	Answer        *AnswerView        `json:"answer,omitempty"`
	IsCorrect     bool               `json:"isCorrect"`
	Skipped       bool               `json:"skipped"`
	ManualGrading bool               `json:"manualGrading"`
	QuestionType  model.QuestionType `json:"questionType"`
}

type Result struct {
	ScorePercent   float64          `json:"scorePercent"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	Breakdown      []QuestionResult `json:"breakdown"`
}

// EvaluateQuestion decides whether a single answer is correct. Text questions
// are never auto-scored and a missing answer is never correct.
func EvaluateQuestion(q *model.Question, a *model.UserAnswer) bool {
	if q == nil || a == nil {
		return false
	}

	selected := make(map[uint]struct{}, len(a.SelectedChoices))
	for _, c := range a.SelectedChoices {
		selected[c.ID] = struct{}{}
	}
	correct := q.CorrectChoiceIDs()

	switch q.QuestionType {
	case model.QuestionSingle:
		if len(selected) != 1 {
			return false
		}
		for id := range selected {
			_, ok := correct[id]
			return ok
		}
	case model.QuestionMultiple:
		// 没有正确选项的题目视为配置错误，永远判错
		if len(correct) == 0 || len(selected) != len(correct) {
			return false
		}
		for id := range selected {
			if _, ok := correct[id]; !ok {
				return false
			}
		}
		return true
	}
	return false
}

// ComputeResult walks order and scores every question that still exists.
// Ids missing from questions are left out of both numerator and denominator.
// It has no side effects; persisting the score is the caller's job.
func ComputeResult(order []uint, questions map[uint]*model.Question, answers map[uint]*model.UserAnswer, opts ScoreOptions) Result {
	res := Result{Breakdown: make([]QuestionResult, 0, len(order))}
	considered := 0

	for _, id := range order {
		q, ok := questions[id]
		if !ok {
			continue
		}
		a := answers[id]
		isText := q.QuestionType == model.QuestionText

		item := QuestionResult{
			QuestionID:    id,
			Question:      newQuestionReview(q),
			Answer:        newAnswerView(a),
			IsCorrect:     EvaluateQuestion(q, a),
			Skipped:       a == nil,
			ManualGrading: isText,
			QuestionType:  q.QuestionType,
		}
		res.Breakdown = append(res.Breakdown, item)

		if isText && opts.ExcludeTextFromScore {
			continue
		}
		considered++
		if item.IsCorrect {
			res.CorrectCount++
		}
	}

	res.TotalQuestions = considered
	if considered > 0 {
		res.ScorePercent = 100 * float64(res.CorrectCount) / float64(considered)
	}
	return res
}
