package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

// conn returns tx when the caller runs inside a transaction, otherwise the root handle.
func (r *QuizAttemptRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.DB
	}
	return tx.WithContext(ctx)
}

// AttemptUpdate is a sparse update; nil fields are left untouched.
type AttemptUpdate struct {
	Status        *model.AttemptStatus
	SubmittedAt   *time.Time
	ScoreRaw      *float64
	ScoreScaled10 *float64
}

func (u AttemptUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.SubmittedAt != nil {
		cols["submitted_at"] = *u.SubmittedAt
	}
	if u.ScoreRaw != nil {
		cols["score_raw"] = *u.ScoreRaw
	}
	if u.ScoreScaled10 != nil {
		cols["score_scaled10"] = *u.ScoreScaled10
	}
	return cols
}

// AttemptFilter 列表查询条件
type AttemptFilter struct {
	StudentID uint
	LessonID  uint
	QuizID    uint
	Status    model.AttemptStatus
	SortBy    string // submittedAt | scoreScaled10
	Order     string // asc | desc
	Page      int
	Limit     int
}

var attemptSortColumns = map[string]string{
	"submittedAt":   "submitted_at",
	"scoreScaled10": "score_scaled10",
}

// IsValidAttemptSort reports whether sortBy is one of the sortable attempt fields.
func IsValidAttemptSort(sortBy string) bool {
	_, ok := attemptSortColumns[sortBy]
	return ok
}

func (r *QuizAttemptRepository) Create(ctx context.Context, tx *gorm.DB, lessonID, quizID, studentID uint) (*model.QuizAttempt, error) {
	attempt := &model.QuizAttempt{
		LessonID:  lessonID,
		QuizID:    quizID,
		StudentID: studentID,
		Status:    model.AttemptInProgress,
		StartedAt: time.Now(),
	}
	if err := r.conn(ctx, tx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *QuizAttemptRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.conn(ctx, tx).First(&a, id).Error; err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	return &a, nil
}

// FindWithDetails loads the attempt with its answers (question + option joined,
// ordered by question id) and the hosting lesson for the visibility flags.
func (r *QuizAttemptRepository) FindWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := preloadAnswers(r.conn(ctx, tx)).
		Preload("Lesson").
		First(&a, id).Error
	if err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	return &a, nil
}

// LockForUpdate takes a row lock on the attempt for the rest of tx.
// SQLite has no row locks; the clause is dropped by its dialect.
func (r *QuizAttemptRepository) LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	return &a, nil
}

func (r *QuizAttemptRepository) Update(ctx context.Context, tx *gorm.DB, id uint, upd AttemptUpdate) (*model.QuizAttempt, error) {
	cols := upd.columns()
	if len(cols) > 0 {
		err := r.conn(ctx, tx).Model(&model.QuizAttempt{}).Where("id = ?", id).Updates(cols).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, tx, id)
}

// TransitionStatus moves the attempt from one status to another only if it is
// still in the expected status. It reports whether a row changed.
func (r *QuizAttemptRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to model.AttemptStatus, upd AttemptUpdate) (bool, error) {
	cols := upd.columns()
	cols["status"] = to
	res := r.conn(ctx, tx).
		Model(&model.QuizAttempt{}).
		Where("id = ? AND status = ?", id, from).
		Updates(cols)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *QuizAttemptRepository) CountByStudentAndLesson(ctx context.Context, tx *gorm.DB, studentID, lessonID uint) (int64, error) {
	var count int64
	err := r.conn(ctx, tx).Model(&model.QuizAttempt{}).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		Count(&count).Error
	return count, err
}

func (r *QuizAttemptRepository) List(ctx context.Context, f AttemptFilter) ([]model.QuizAttempt, int64, error) {
	query := r.conn(ctx, nil).Model(&model.QuizAttempt{})
	if f.StudentID > 0 {
		query = query.Where("student_id = ?", f.StudentID)
	}
	if f.LessonID > 0 {
		query = query.Where("lesson_id = ?", f.LessonID)
	}
	if f.QuizID > 0 {
		query = query.Where("quiz_id = ?", f.QuizID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := attemptSortColumns[f.SortBy]
	if !ok {
		column = "submitted_at"
	}
	direction := "desc"
	if f.Order == "asc" {
		direction = "asc"
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = util.DefaultPage
	}
	if limit < 1 {
		limit = util.DefaultLimit
	}

	// NULL 统一排在最后，MySQL 与 PostgreSQL 默认顺序不同
	var items []model.QuizAttempt
	err := query.
		Order(fmt.Sprintf("CASE WHEN %s IS NULL THEN 1 ELSE 0 END", column)).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id asc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

// ListIDsAfter pages attempt ids in ascending order starting after afterID.
func (r *QuizAttemptRepository) ListIDsAfter(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.conn(ctx, nil).Model(&model.QuizAttempt{}).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func preloadAnswers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_id asc")
		}).
		Preload("Answers.Question").
		Preload("Answers.Option")
}

// notFound translates gorm's missing-row error into the domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
