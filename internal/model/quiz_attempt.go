package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

// QuizAttempt 学生在某个课时中对测验的一次作答
// SubmittedAt is set iff Status is submitted or graded. Scores stay nil until the first answer.
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel

	LessonID      uint          `gorm:"index;not null" json:"lessonId"`
	QuizID        uint          `gorm:"index;not null" json:"quizId"`
	StudentID     uint          `gorm:"index;not null" json:"studentId"`
	Status        AttemptStatus `gorm:"size:20;index;not null" json:"status"`
	StartedAt     time.Time     `json:"startedAt"`
	SubmittedAt   *time.Time    `gorm:"index" json:"submittedAt"`
	ScoreRaw      *float64      `gorm:"column:score_raw" json:"scoreRaw"`
	ScoreScaled10 *float64      `gorm:"column:score_scaled10;index" json:"scoreScaled10"`

	Answers []QuizAnswer `gorm:"foreignKey:AttemptID" json:"-"`
	Lesson  *Lesson      `gorm:"foreignKey:LessonID" json:"-"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) InProgress() bool {
	return a.Status == AttemptInProgress
}
