package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizAttemptService struct {
	AttemptRepo *repository.QuizAttemptRepository
	LessonRepo  *repository.LessonRepository
	Locker      AttemptLocker
	DB          *gorm.DB

	maxAttempts atomic.Int64
}

func NewQuizAttemptService(
	attemptRepo *repository.QuizAttemptRepository,
	lessonRepo *repository.LessonRepository,
	locker AttemptLocker,
	db *gorm.DB,
	maxAttemptsPerLesson int,
) *QuizAttemptService {
	s := &QuizAttemptService{
		AttemptRepo: attemptRepo,
		LessonRepo:  lessonRepo,
		Locker:      locker,
		DB:          db,
	}
	s.SetMaxAttempts(maxAttemptsPerLesson)
	return s
}

// SetMaxAttempts changes the per-(student, lesson) cap at runtime. 0 disables it.
func (s *QuizAttemptService) SetMaxAttempts(n int) {
	if n < 0 {
		n = 0
	}
	s.maxAttempts.Store(int64(n))
}

func (s *QuizAttemptService) MaxAttempts() int {
	return int(s.maxAttempts.Load())
}

type CreateAttemptRequest struct {
	LessonID uint `json:"lessonId" binding:"required,min=1"`
	QuizID   uint `json:"quizId" binding:"required,min=1"`
}

func (s *QuizAttemptService) CreateAttempt(ctx context.Context, studentID uint, req CreateAttemptRequest) (*model.QuizAttempt, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizAttemptService.CreateAttempt")
	defer span.End()
	span.SetAttributes(attribute.Int("lesson.id", int(req.LessonID)))

	lesson, err := s.LessonRepo.FindQuizLessonByID(ctx, req.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.QuizID != req.QuizID {
		return nil, util.ErrQuizMismatch
	}

	var attempt *model.QuizAttempt
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if limit := s.MaxAttempts(); limit > 0 {
			// 锁住课时行，同一课时的并发创建依次计数
			if err := s.LessonRepo.LockLesson(ctx, tx, req.LessonID); err != nil {
				return err
			}
			count, err := s.AttemptRepo.CountByStudentAndLesson(ctx, tx, studentID, req.LessonID)
			if err != nil {
				return err
			}
			if count >= int64(limit) {
				return fmt.Errorf("%w (%d of %d)", util.ErrAttemptLimitReached, count, limit)
			}
		}

		var err error
		attempt, err = s.AttemptRepo.Create(ctx, tx, req.LessonID, lesson.QuizID, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptsCreated.Inc()
	logger.Log.Info("Quiz attempt started",
		zap.Uint("attemptID", attempt.ID),
		zap.Uint("lessonID", attempt.LessonID),
		zap.Uint("studentID", studentID))
	return attempt, nil
}

// SubmitAttempt moves an in-progress attempt to submitted. The transition is
// one way; a second submit fails with ErrAttemptNotInProgress.
func (s *QuizAttemptService) SubmitAttempt(ctx context.Context, callerID, attemptID uint) (*model.QuizAttempt, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizAttemptService.SubmitAttempt")
	defer span.End()
	span.SetAttributes(attribute.Int("attempt.id", int(attemptID)))

	unlock, err := s.Locker.Lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var submitted *model.QuizAttempt
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.AttemptRepo.LockForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.StudentID != callerID {
			return util.ErrPermissionDenied
		}
		if !attempt.InProgress() {
			return util.ErrAttemptNotInProgress
		}

		now := time.Now()
		changed, err := s.AttemptRepo.TransitionStatus(ctx, tx, attemptID,
			model.AttemptInProgress, model.AttemptSubmitted,
			repository.AttemptUpdate{SubmittedAt: &now})
		if err != nil {
			return err
		}
		if !changed {
			return util.ErrAttemptNotInProgress
		}

		submitted, err = s.AttemptRepo.FindByID(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptsSubmitted.Inc()
	logger.Log.Info("Quiz attempt submitted",
		zap.Uint("attemptID", attemptID),
		zap.Uint("studentID", callerID))
	return submitted, nil
}

// GetAttempt reads the attempt and gates it for the caller. The lesson flags
// are read on every call.
func (s *QuizAttemptService) GetAttempt(ctx context.Context, callerID uint, role model.UserRole, attemptID uint) (*AttemptDetailView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizAttemptService.GetAttempt")
	defer span.End()

	attempt, err := s.AttemptRepo.FindWithDetails(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	if role.IsStudent() && attempt.StudentID != callerID {
		return nil, util.ErrPermissionDenied
	}
	return newAttemptDetailView(attempt, visibilityFor(role, attempt.Lesson)), nil
}

// AttemptListQuery 列表查询参数
type AttemptListQuery struct {
	Page      int                 `form:"page"`
	Limit     int                 `form:"limit"`
	SortBy    string              `form:"sortBy"`
	Order     string              `form:"order"`
	StudentID uint                `form:"studentId"`
	LessonID  uint                `form:"lessonId"`
	QuizID    uint                `form:"quizId"`
	Status    model.AttemptStatus `form:"status"`
}

// Normalize fills defaults and rejects unknown sort fields, orders and statuses.
func (q *AttemptListQuery) Normalize() error {
	if q.Page < 1 {
		q.Page = util.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = util.DefaultLimit
	}
	if q.Limit > util.MaxLimit {
		q.Limit = util.MaxLimit
	}
	if q.SortBy == "" {
		q.SortBy = "submittedAt"
	}
	if !repository.IsValidAttemptSort(q.SortBy) {
		return fmt.Errorf("%w: unsupported sortBy %q", util.ErrValidation, q.SortBy)
	}
	switch q.Order {
	case "":
		q.Order = "desc"
	case "asc", "desc":
	default:
		return fmt.Errorf("%w: order must be asc or desc", util.ErrValidation)
	}
	switch q.Status {
	case "", model.AttemptInProgress, model.AttemptSubmitted, model.AttemptGraded:
	default:
		return fmt.Errorf("%w: unknown status %q", util.ErrValidation, q.Status)
	}
	return nil
}

func (s *QuizAttemptService) ListAttempts(ctx context.Context, q AttemptListQuery) (*util.PageResponse, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizAttemptService.ListAttempts")
	defer span.End()

	if err := q.Normalize(); err != nil {
		return nil, err
	}

	items, total, err := s.AttemptRepo.List(ctx, repository.AttemptFilter{
		StudentID: q.StudentID,
		LessonID:  q.LessonID,
		QuizID:    q.QuizID,
		Status:    q.Status,
		SortBy:    q.SortBy,
		Order:     q.Order,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.QuizAttempt{}
	}

	return &util.PageResponse{
		List:  items,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}
