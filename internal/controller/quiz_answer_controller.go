package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizAnswerController struct {
	AnswerService *service.QuizAnswerService
}

func NewQuizAnswerController(answerService *service.QuizAnswerService) *QuizAnswerController {
	return &QuizAnswerController{AnswerService: answerService}
}

// @Summary 保存答案
// @Description 同一题目再次作答会替换之前的选项，并重新计算分数
// @Tags 测验作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答ID"
// @Param answer body service.UpsertAnswerRequest true "题目与选项"
// @Success 200 {object} util.Response{data=service.AnswerView}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz-attempts/{id}/answers [put]
func (c *QuizAnswerController) UpsertAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	var req service.UpsertAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.UpsertAnswer(ctx.Request.Context(), user.UserID, attemptID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, answer)
}

// @Summary 删除答案
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答ID"
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz-attempts/{id}/answers/{questionId} [delete]
func (c *QuizAnswerController) DeleteAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if err := c.AnswerService.DeleteAnswer(ctx.Request.Context(), user.UserID, attemptID, questionID); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "answer deleted"})
}
