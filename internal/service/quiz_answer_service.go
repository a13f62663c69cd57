package service

import (
	"context"

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

// QuizAnswerService owns answer upserts and deletes. Every mutation holds the
// attempt lock and a row lock, and rescoring is done from the full answer set.
type QuizAnswerService struct {
	AnswerRepo  *repository.QuizAnswerRepository
	AttemptRepo *repository.QuizAttemptRepository
	LessonRepo  *repository.LessonRepository
	Locker      AttemptLocker
	DB          *gorm.DB
}

func NewQuizAnswerService(
	answerRepo *repository.QuizAnswerRepository,
	attemptRepo *repository.QuizAttemptRepository,
	lessonRepo *repository.LessonRepository,
	locker AttemptLocker,
	db *gorm.DB,
) *QuizAnswerService {
	return &QuizAnswerService{
		AnswerRepo:  answerRepo,
		AttemptRepo: attemptRepo,
		LessonRepo:  lessonRepo,
		Locker:      locker,
		DB:          db,
	}
}

type UpsertAnswerRequest struct {
	QuestionID uint `json:"questionId" binding:"required,min=1"`
	OptionID   uint `json:"optionId" binding:"required,min=1"`
}

// verifyAccess row-locks the attempt and checks, in order: existence,
// ownership, in-progress status.
func (s *QuizAnswerService) verifyAccess(ctx context.Context, tx *gorm.DB, attemptID, callerID uint) (*model.QuizAttempt, error) {
	if _, err := s.AttemptRepo.LockForUpdate(ctx, tx, attemptID); err != nil {
		return nil, err
	}
	attempt, err := s.AnswerRepo.FindAttemptWithAnswers(ctx, tx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != callerID {
		return nil, util.ErrPermissionDenied
	}
	if !attempt.InProgress() {
		return nil, util.ErrAttemptNotInProgress
	}
	return attempt, nil
}

// rescore recomputes the attempt score from scratch and writes it back.
func (s *QuizAnswerService) rescore(ctx context.Context, tx *gorm.DB, attemptID uint) (ScoreResult, error) {
	snapshot, err := s.AnswerRepo.FindAttemptWithAnswers(ctx, tx, attemptID)
	if err != nil {
		return ScoreResult{}, err
	}
	res := ComputeScore(snapshot.Answers)
	if _, err := s.AnswerRepo.WriteAttemptScore(ctx, tx, attemptID, res.EarnedPoints, res.ScoreScaled10); err != nil {
		return ScoreResult{}, err
	}
	return res, nil
}

// UpsertAnswer selects optionId for questionId, replacing any earlier choice.
func (s *QuizAnswerService) UpsertAnswer(ctx context.Context, callerID, attemptID uint, req UpsertAnswerRequest) (*AnswerView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizAnswerService.UpsertAnswer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("attempt.id", int(attemptID)),
		attribute.Int("question.id", int(req.QuestionID)),
	)

	unlock, err := s.Locker.Lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var view *AnswerView
	var score ScoreResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.verifyAccess(ctx, tx, attemptID, callerID)
		if err != nil {
			return err
		}

		question, _, err := s.LessonRepo.FindQuestionOption(ctx, tx, req.QuestionID, req.OptionID)
		if err != nil {
			return err
		}
		if question.QuizID != attempt.QuizID {
			return util.ErrQuestionNotInQuiz
		}

		if err := s.AnswerRepo.Upsert(ctx, tx, attemptID, req.QuestionID, req.OptionID); err != nil {
			return err
		}
		if score, err = s.rescore(ctx, tx, attemptID); err != nil {
			return err
		}

		answer, err := s.AnswerRepo.FindByAttemptAndQuestion(ctx, tx, attemptID, req.QuestionID)
		if err != nil {
			return err
		}
		v := newAnswerView(*answer, visibilityFor(model.Student, attempt.Lesson))
		view = &v
		return nil
	})
	if err != nil {
		monitoring.AnswerMutations.WithLabelValues("upsert", "error").Inc()
		return nil, err
	}

	monitoring.AnswerMutations.WithLabelValues("upsert", "ok").Inc()
	logger.Log.Debug("Quiz answer saved",
		zap.Uint("attemptID", attemptID),
		zap.Uint("questionID", req.QuestionID),
		zap.Uint("optionID", req.OptionID),
		zap.Float64("scoreScaled10", score.ScoreScaled10))
	return view, nil
}

// DeleteAnswer clears the answer for questionID and rescores.
func (s *QuizAnswerService) DeleteAnswer(ctx context.Context, callerID, attemptID, questionID uint) error {
	ctx, span := tracing.Tracer.Start(ctx, "QuizAnswerService.DeleteAnswer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("attempt.id", int(attemptID)),
		attribute.Int("question.id", int(questionID)),
	)

	unlock, err := s.Locker.Lock(ctx, attemptID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.verifyAccess(ctx, tx, attemptID, callerID); err != nil {
			return err
		}

		existing, err := s.AnswerRepo.FindByAttemptAndQuestion(ctx, tx, attemptID, questionID)
		if err != nil {
			return err
		}
		if err := s.AnswerRepo.Delete(ctx, tx, attemptID, questionID, existing.OptionID); err != nil {
			return err
		}

		_, err = s.rescore(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		monitoring.AnswerMutations.WithLabelValues("delete", "error").Inc()
		return err
	}

	monitoring.AnswerMutations.WithLabelValues("delete", "ok").Inc()
	logger.Log.Debug("Quiz answer deleted",
		zap.Uint("attemptID", attemptID),
		zap.Uint("questionID", questionID))
	return nil
}

// RescoreAttempt recomputes a stored score regardless of status. It repairs
// attempts whose score write was lost.
func (s *QuizAnswerService) RescoreAttempt(ctx context.Context, attemptID uint) (*ScoreResult, error) {
	unlock, err := s.Locker.Lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res ScoreResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.AttemptRepo.LockForUpdate(ctx, tx, attemptID); err != nil {
			return err
		}
		var err error
		res, err = s.rescore(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RescoreAll walks every attempt in id order. It stops at the first failure
// and reports how many attempts were rescored before it.
func (s *QuizAnswerService) RescoreAll(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = util.MaxLimit
	}

	done := 0
	var lastID uint
	for {
		ids, err := s.AttemptRepo.ListIDsAfter(ctx, lastID, batchSize)
		if err != nil {
			return done, err
		}
		if len(ids) == 0 {
			return done, nil
		}
		for _, id := range ids {
			if _, err := s.RescoreAttempt(ctx, id); err != nil {
				return done, err
			}
			done++
			lastID = id
		}
	}
}
