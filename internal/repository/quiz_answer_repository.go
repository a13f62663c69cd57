package repository

import (
	"context"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizAnswerRepository struct {
	DB *gorm.DB
}

func NewQuizAnswerRepository(db *gorm.DB) *QuizAnswerRepository {
	return &QuizAnswerRepository{DB: db}
}

func (r *QuizAnswerRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.DB
	}
	return tx.WithContext(ctx)
}

// AnswerFilter zero values are ignored.
type AnswerFilter struct {
	AttemptID  uint
	QuestionID uint
	OptionID   uint
}

func (r *QuizAnswerRepository) Create(ctx context.Context, tx *gorm.DB, attemptID, questionID, optionID uint) (*model.QuizAnswer, error) {
	answer := &model.QuizAnswer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		OptionID:   optionID,
	}
	if err := r.conn(ctx, tx).Omit(clause.Associations).Create(answer).Error; err != nil {
		return nil, err
	}
	return answer, nil
}

// Upsert writes the selected option for (attempt, question) in one statement,
// replacing any previous option for that question.
func (r *QuizAnswerRepository) Upsert(ctx context.Context, tx *gorm.DB, attemptID, questionID, optionID uint) error {
	now := time.Now()
	answer := &model.QuizAnswer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		OptionID:   optionID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.conn(ctx, tx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"option_id", "updated_at"}),
		}).
		Create(answer).Error
}

func (r *QuizAnswerRepository) FindByComposite(ctx context.Context, tx *gorm.DB, attemptID, questionID, optionID uint) (*model.QuizAnswer, error) {
	var a model.QuizAnswer
	err := r.conn(ctx, tx).
		Preload("Question").
		Preload("Option").
		Where("attempt_id = ? AND question_id = ? AND option_id = ?", attemptID, questionID, optionID).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, util.ErrAnswerNotFound)
	}
	return &a, nil
}

func (r *QuizAnswerRepository) FindByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*model.QuizAnswer, error) {
	var a model.QuizAnswer
	err := r.conn(ctx, tx).
		Preload("Question").
		Preload("Option").
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, util.ErrAnswerNotFound)
	}
	return &a, nil
}

// FindMany returns matching answers joined with question and option, ordered by
// question id. limit <= 0 disables pagination.
func (r *QuizAnswerRepository) FindMany(ctx context.Context, tx *gorm.DB, f AnswerFilter, offset, limit int) ([]model.QuizAnswer, error) {
	query := r.conn(ctx, tx).Preload("Question").Preload("Option")
	if f.AttemptID > 0 {
		query = query.Where("attempt_id = ?", f.AttemptID)
	}
	if f.QuestionID > 0 {
		query = query.Where("question_id = ?", f.QuestionID)
	}
	if f.OptionID > 0 {
		query = query.Where("option_id = ?", f.OptionID)
	}
	query = query.Order("question_id asc").Order("attempt_id asc")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var answers []model.QuizAnswer
	if err := query.Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *QuizAnswerRepository) Delete(ctx context.Context, tx *gorm.DB, attemptID, questionID, optionID uint) error {
	res := r.conn(ctx, tx).
		Where("attempt_id = ? AND question_id = ? AND option_id = ?", attemptID, questionID, optionID).
		Delete(&model.QuizAnswer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrAnswerNotFound
	}
	return nil
}

// FindAttemptWithAnswers is the snapshot the answer mutations score from.
func (r *QuizAnswerRepository) FindAttemptWithAnswers(ctx context.Context, tx *gorm.DB, attemptID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := preloadAnswers(r.conn(ctx, tx)).
		Preload("Lesson").
		First(&a, attemptID).Error
	if err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	return &a, nil
}

func (r *QuizAnswerRepository) WriteAttemptScore(ctx context.Context, tx *gorm.DB, attemptID uint, scoreRaw, scoreScaled10 float64) (*model.QuizAttempt, error) {
	res := r.conn(ctx, tx).
		Model(&model.QuizAttempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"score_raw":      scoreRaw,
			"score_scaled10": scoreScaled10,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	var a model.QuizAttempt
	if err := r.conn(ctx, tx).First(&a, attemptID).Error; err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	return &a, nil
}
