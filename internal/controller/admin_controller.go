package controller

import (
	"strconv"

	"quiz_backend/internal/repository"
	"quiz_backend/internal/service"
	"quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	ContentService *service.ContentService
	StatsService   *service.StatsService
}

func NewAdminController(content *service.ContentService, stats *service.StatsService) *AdminController {
	return &AdminController{ContentService: content, StatsService: stats}
}

// ImportModule godoc
// @Summary 导入模块
// @Description 在一个事务中创建模块、考试配置、题目和选项
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ModuleImport true "模块内容"
// @Success 201 {object} util.Response{data=model.Module}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/modules/import [post]
func (c *AdminController) ImportModule(ctx *gin.Context) {
	var req service.ModuleImport
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.ContentService.ImportModule(ctx.Request.Context(), req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// ListAttempts godoc
// @Summary 作答记录
// @Description 按模块或用户筛选的只读作答列表
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId query int false "模块ID"
// @Param userId query int false "用户ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=service.AttemptPage}
// @Failure 403 {object} util.Response
// @Router /api/admin/attempts [get]
func (c *AdminController) ListAttempts(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(util.DefaultLimit)))

	res, err := c.StatsService.ListAttempts(ctx.Request.Context(), repository.AttemptFilter{
		ModuleID: util.MustParseUint(ctx.Query("moduleId")),
		UserID:   util.MustParseUint(ctx.Query("userId")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
