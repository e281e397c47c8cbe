package controller

import (
	"errors"
	"io"

	"quiz_backend/internal/service"
	"quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// NextStep tells the client where to go instead of rendering a page.
type NextStep struct {
	Type  string `json:"type"` // question | result
	Index int    `json:"index,omitempty"`
}

type Feedback struct {
	IsCorrect     bool                    `json:"isCorrect"`
	ManualGrading bool                    `json:"manualGrading"`
	Question      *service.QuestionReview `json:"question"`
}

// QuestionResponse is either a page (view or feedback) or a next step.
type QuestionResponse struct {
	*service.QuestionPage
	Feedback *Feedback `json:"feedback,omitempty"`
	Next     *NextStep `json:"next,omitempty"`
}

func toQuestionResponse(out *service.QuestionOutcome) QuestionResponse {
	switch out.Kind {
	case service.OutcomeRedirectQuestion:
		return QuestionResponse{Next: &NextStep{Type: "question", Index: out.NextIndex}}
	case service.OutcomeRedirectResult:
		return QuestionResponse{Next: &NextStep{Type: "result"}}
	case service.OutcomeFeedback:
		return QuestionResponse{
			QuestionPage: out.Page,
			Feedback: &Feedback{
				IsCorrect:     out.IsCorrect,
				ManualGrading: out.ManualGrading,
				Question:      out.Review,
			},
		}
	}
	return QuestionResponse{QuestionPage: out.Page}
}

// ViewQuestion godoc
// @Summary 查看题目
// @Description 按 1 起始的位置查看作答中的题目；已结束、超时或越界时返回 next=result
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param index path int true "题目位置（从1开始）"
// @Success 200 {object} util.Response{data=QuestionResponse}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/attempts/{id}/questions/{index} [get]
func (c *AttemptController) ViewQuestion(ctx *gin.Context) {
	c.handleQuestion(ctx, nil)
}

// AnswerQuestion godoc
// @Summary 提交答案
// @Description 单选/多选提交 choiceIds，简答提交 textAnswer；重复提交会覆盖之前的答案
// @Tags 作答
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param index path int true "题目位置（从1开始）"
// @Param body body service.Submission true "答案"
// @Success 200 {object} util.Response{data=QuestionResponse}
// @Failure 400 {object} util.Response "答案与题型不符或选项不属于该题"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/attempts/{id}/questions/{index} [post]
func (c *AttemptController) AnswerQuestion(ctx *gin.Context) {
	var sub service.Submission
	// 空请求体等同于清空选择
	if err := ctx.ShouldBindJSON(&sub); err != nil && !errors.Is(err, io.EOF) {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.handleQuestion(ctx, &sub)
}

func (c *AttemptController) handleQuestion(ctx *gin.Context, sub *service.Submission) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID := util.MustParseUint(ctx.Param("id"))
	index := util.ParseIndex(ctx.Param("index"))

	out, err := c.AttemptService.ViewOrAnswerQuestion(ctx.Request.Context(), attemptID, claims.UserID, index, sub)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, toQuestionResponse(out))
}

// FinishAttempt godoc
// @Summary 交卷
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/finish [post]
func (c *AttemptController) FinishAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.AttemptService.FinishAttempt(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"attempt": attempt, "next": NextStep{Type: "result"}})
}

// GetResult godoc
// @Summary 查看成绩
// @Description 未结束的作答会先被结束；分数每次查看时重新计算并保存
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.ResultView}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/result [get]
func (c *AttemptController) GetResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.AttemptService.ViewResult(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
