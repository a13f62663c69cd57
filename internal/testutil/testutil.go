package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// JWTSecret signs tokens minted by Token.
const JWTSecret = "test-secret-test-secret-test-secret"

var dbSeq atomic.Int64

// DB opens a fresh migrated in-memory database. Each call gets its own schema.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:lms_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	// 单连接，测试中的并发请求在连接上排队
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

// QuizFixture is a lesson hosting a quiz. Questions[i] has Options[i]; the
// first option of every question is the correct one.
type QuizFixture struct {
	Lesson    *model.Lesson
	Quiz      *model.Quiz
	Questions []model.QuizQuestion
	Options   [][]model.QuizOption
}

func (f *QuizFixture) Correct(q int) model.QuizOption { return f.Options[q][0] }
func (f *QuizFixture) Wrong(q int) model.QuizOption   { return f.Options[q][1] }

// SeedQuizLesson seeds a quiz with one question per weight, two options each,
// and a lesson hosting it.
func SeedQuizLesson(tb testing.TB, db *gorm.DB, showAnswers, showScore bool, weights ...float64) *QuizFixture {
	tb.Helper()

	quiz := &model.Quiz{Title: "quiz"}
	if err := db.Create(quiz).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}

	f := &QuizFixture{Quiz: quiz}
	for i, w := range weights {
		q := model.QuizQuestion{QuizID: quiz.ID, Content: fmt.Sprintf("Q%d", i+1), Points: w, Order: i + 1}
		if err := db.Create(&q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		opts := []model.QuizOption{
			{QuestionID: q.ID, Content: "right", IsCorrect: true},
			{QuestionID: q.ID, Content: "wrong", IsCorrect: false},
		}
		if err := db.Create(&opts).Error; err != nil {
			tb.Fatalf("seed options: %v", err)
		}
		f.Questions = append(f.Questions, q)
		f.Options = append(f.Options, opts)
	}

	f.Lesson = SeedLesson(tb, db, &quiz.ID, showAnswers, showScore)
	return f
}

// SeedLesson creates a lesson; quizID may be nil for a lesson without a quiz.
func SeedLesson(tb testing.TB, db *gorm.DB, quizID *uint, showAnswers, showScore bool) *model.Lesson {
	tb.Helper()
	lesson := &model.Lesson{Title: "lesson", QuizID: quizID}
	if err := db.Create(lesson).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	SetLessonFlags(tb, db, lesson.ID, showAnswers, showScore)
	lesson.ShowQuizAnswers = showAnswers
	lesson.ShowQuizScore = showScore
	return lesson
}

// SetLessonFlags writes both visibility flags, including false values.
func SetLessonFlags(tb testing.TB, db *gorm.DB, lessonID uint, showAnswers, showScore bool) {
	tb.Helper()
	err := db.Model(&model.Lesson{}).Where("id = ?", lessonID).Updates(map[string]interface{}{
		"show_quiz_answers": showAnswers,
		"show_quiz_score":   showScore,
	}).Error
	if err != nil {
		tb.Fatalf("set lesson flags: %v", err)
	}
}

// SeedAttempt inserts an attempt in the given status.
func SeedAttempt(tb testing.TB, db *gorm.DB, f *QuizFixture, studentID uint, status model.AttemptStatus) *model.QuizAttempt {
	tb.Helper()
	a := &model.QuizAttempt{
		LessonID:  f.Lesson.ID,
		QuizID:    f.Quiz.ID,
		StudentID: studentID,
		Status:    status,
		StartedAt: time.Now(),
	}
	if status != model.AttemptInProgress {
		now := time.Now()
		a.SubmittedAt = &now
	}
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

// Token mints a bearer token for the given caller.
func Token(tb testing.TB, userID uint, role model.UserRole) string {
	tb.Helper()
	token, err := util.GenerateJWT(userID, role, fmt.Sprintf("u%d@example.com", userID), JWTSecret, time.Hour)
	if err != nil {
		tb.Fatalf("generate jwt: %v", err)
	}
	return token
}
