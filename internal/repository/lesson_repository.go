package repository

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LessonRepository reads the lesson/quiz catalog. Authoring goes through the
// catalog module; nothing here writes.
type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

// QuizLesson is the part of a lesson the attempt engine consults.
type QuizLesson struct {
	LessonID        uint `json:"lessonId"`
	QuizID          uint `json:"quizId"`
	ShowQuizAnswers bool `json:"showQuizAnswers"`
	ShowQuizScore   bool `json:"showQuizScore"`
}

// FindQuizLessonByID returns ErrLessonNotFound when the lesson is missing and
// ErrQuizNotFound when it does not host a quiz.
func (r *LessonRepository) FindQuizLessonByID(ctx context.Context, lessonID uint) (*QuizLesson, error) {
	var lesson model.Lesson
	if err := r.DB.WithContext(ctx).First(&lesson, lessonID).Error; err != nil {
		return nil, notFound(err, util.ErrLessonNotFound)
	}
	if lesson.QuizID == nil || *lesson.QuizID == 0 {
		return nil, util.ErrQuizNotFound
	}

	var quiz model.Quiz
	if err := r.DB.WithContext(ctx).Select("id").First(&quiz, *lesson.QuizID).Error; err != nil {
		return nil, notFound(err, util.ErrQuizNotFound)
	}

	return &QuizLesson{
		LessonID:        lesson.ID,
		QuizID:          quiz.ID,
		ShowQuizAnswers: lesson.ShowQuizAnswers,
		ShowQuizScore:   lesson.ShowQuizScore,
	}, nil
}

// LockLesson row-locks the lesson for the rest of tx. Attempt creation uses
// it so the per-student cap is counted and enforced under one lock.
func (r *LessonRepository) LockLesson(ctx context.Context, tx *gorm.DB, lessonID uint) error {
	var lesson model.Lesson
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", lessonID).
		First(&lesson).Error
	return notFound(err, util.ErrLessonNotFound)
}

// FindQuestionOption loads a question and one of its options.
func (r *LessonRepository) FindQuestionOption(ctx context.Context, tx *gorm.DB, questionID, optionID uint) (*model.QuizQuestion, *model.QuizOption, error) {
	db := r.DB
	if tx != nil {
		db = tx
	}
	db = db.WithContext(ctx)

	var q model.QuizQuestion
	if err := db.First(&q, questionID).Error; err != nil {
		return nil, nil, notFound(err, util.ErrQuestionNotFound)
	}

	var o model.QuizOption
	err := db.Where("id = ? AND question_id = ?", optionID, questionID).First(&o).Error
	if err != nil {
		return nil, nil, notFound(err, util.ErrOptionNotInQuestion)
	}
	return &q, &o, nil
}
