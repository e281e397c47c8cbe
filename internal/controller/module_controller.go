package controller

import (
	"quiz_backend/internal/service"
	"quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	StatsService   *service.StatsService
	AttemptService *service.AttemptService
}

func NewModuleController(stats *service.StatsService, attempts *service.AttemptService) *ModuleController {
	return &ModuleController{StatsService: stats, AttemptService: attempts}
}

// ListModules godoc
// @Summary 模块列表
// @Description 所有模块、当前用户的作答记录（最新在前）以及各模块最高分
// @Tags 模块
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Overview}
// @Failure 401 {object} util.Response
// @Router /api/modules [get]
func (c *ModuleController) ListModules(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.StatsService.Overview(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// StartAttempt godoc
// @Summary 开始或继续作答
// @Description 存在未结束的作答时直接恢复，否则新建作答并生成题目顺序
// @Tags 模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "模块ID"
// @Success 200 {object} util.Response{data=service.StartResult} "恢复已有作答"
// @Success 201 {object} util.Response{data=service.StartResult} "新建作答"
// @Failure 404 {object} util.Response "模块不存在"
// @Failure 409 {object} util.Response "作答正被其他请求修改"
// @Failure 422 {object} util.Response "模块没有题目"
// @Router /api/modules/{id}/start [post]
func (c *ModuleController) StartAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	moduleID := util.MustParseUint(ctx.Param("id"))
	res, err := c.AttemptService.StartAttempt(ctx.Request.Context(), claims.UserID, moduleID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	if res.Resumed {
		util.Success(ctx, res)
		return
	}
	util.Created(ctx, res)
}
