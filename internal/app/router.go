package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"

	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerQuizAttemptRoutes(authGroup, c, cfg)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}
}

func (a *App) registerQuizAttemptRoutes(rg *gin.RouterGroup, c *controllers, cfg *config.Config) {
	attempts := rg.Group("/quiz-attempts")
	{
		// 学生作答，按用户限流
		student := middleware.RoleMiddleware(model.Student)
		limit := security.MutationRateLimiter(cfg.RateLimit)
		attempts.POST("", student, limit, c.attempt.CreateAttempt)
		attempts.POST("/:id/submit", student, limit, c.attempt.SubmitAttempt)
		attempts.PUT("/:id/answers", student, limit, c.answer.UpsertAnswer)
		attempts.DELETE("/:id/answers/:questionId", student, limit, c.answer.DeleteAnswer)

		// 查看：学生仅限本人，其余角色不受限
		attempts.GET("/:id", c.attempt.GetAttempt)

		// 教师/管理员
		attempts.GET("", middleware.RoleMiddleware(model.Teacher, model.Admin), c.attempt.ListAttempts)
	}
}
