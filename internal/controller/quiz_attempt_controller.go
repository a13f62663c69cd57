package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizAttemptController struct {
	AttemptService *service.QuizAttemptService
}

func NewQuizAttemptController(attemptService *service.QuizAttemptService) *QuizAttemptController {
	return &QuizAttemptController{AttemptService: attemptService}
}

// @Summary 开始测验作答
// @Tags 测验作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt body service.CreateAttemptRequest true "课时与测验"
// @Success 201 {object} util.Response{data=model.QuizAttempt}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz-attempts [post]
func (c *QuizAttemptController) CreateAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.CreateAttempt(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, attempt)
}

// @Summary 提交测验作答
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz-attempts/{id}/submit [post]
func (c *QuizAttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	attempt, err := c.AttemptService.SubmitAttempt(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}

// @Summary 获取作答详情
// @Description 学生只能查看自己的作答，分数和正确答案按课时设置显示
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptDetailView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz-attempts/{id} [get]
func (c *QuizAttemptController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	view, err := c.AttemptService.GetAttempt(ctx.Request.Context(), user.UserID, user.Role, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 作答列表
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param sortBy query string false "排序字段" Enums(submittedAt, scoreScaled10)
// @Param order query string false "排序方向" Enums(asc, desc)
// @Param studentId query int false "学生ID"
// @Param lessonId query int false "课时ID"
// @Param quizId query int false "测验ID"
// @Param status query string false "状态" Enums(in_progress, submitted, graded)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 400 {object} util.Response
// @Router /api/quiz-attempts [get]
func (c *QuizAttemptController) ListAttempts(ctx *gin.Context) {
	var q service.AttemptListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	page, err := c.AttemptService.ListAttempts(ctx.Request.Context(), q)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, page)
}
