package app

import (
	"context"
	"lms_backend/internal/config"
	"lms_backend/internal/controller"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/pkg/configwatcher"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stopWatch       chan struct{}
}

type repositories struct {
	lesson  *repository.LessonRepository
	attempt *repository.QuizAttemptRepository
	answer  *repository.QuizAnswerRepository
}

type services struct {
	locker  service.AttemptLocker
	attempt *service.QuizAttemptService
	answer  *service.QuizAnswerService
}

type controllers struct {
	attempt *controller.QuizAttemptController
	answer  *controller.QuizAnswerController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		lesson:  repository.NewLessonRepository(db),
		attempt: repository.NewQuizAttemptRepository(db),
		answer:  repository.NewQuizAnswerRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, locker service.AttemptLocker) *services {
	s := &services{locker: locker}
	s.attempt = service.NewQuizAttemptService(repos.attempt, repos.lesson, s.locker, db, cfg.Quiz.MaxAttemptsPerLesson)
	s.answer = service.NewQuizAnswerService(repos.answer, repos.attempt, repos.lesson, s.locker, db)

	// 配置热更新：尝试次数上限
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.attempt.SetMaxAttempts(newCfg.Quiz.MaxAttemptsPerLesson)
		logger.Log.Info("Quiz policy reloaded",
			zap.Int("maxAttemptsPerLesson", newCfg.Quiz.MaxAttemptsPerLesson))
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		attempt: controller.NewQuizAttemptController(s.attempt),
		answer:  controller.NewQuizAnswerController(s.answer),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startConfigWatcher() {
	if a.ConfigPath == "" {
		return
	}
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})

	a.stopWatch = make(chan struct{})
	go func() {
		err := configwatcher.WatchConfig(a.ConfigPath, a.stopWatch, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// NewApp wires the application. configDir is watched for changes to config.yaml;
// pass "" to disable hot reload.
func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug", migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if configDir != "" {
		app.ConfigPath = filepath.Join(configDir, "config.yaml")
	}
	if cfg.MigrateOnly {
		return app
	}

	locker, rdb, err := newAttemptLocker(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize attempt locker", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, locker)
	app.services = services
	controllers := app.initControllers(services, db, app.Redis)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
	app.startConfigWatcher()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.stopWatch != nil {
		close(a.stopWatch)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
