package model

import "time"

// QuizAnswer holds the option currently selected for one question of an attempt.
// The (attempt_id, question_id) primary key allows at most one live answer per question.
// swagger:model QuizAnswer
type QuizAnswer struct {
	AttemptID  uint      `gorm:"primaryKey;autoIncrement:false" json:"attemptId"`
	QuestionID uint      `gorm:"primaryKey;autoIncrement:false" json:"questionId"`
	OptionID   uint      `gorm:"index;not null" json:"optionId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Question *QuizQuestion `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	Option   *QuizOption   `gorm:"foreignKey:OptionID" json:"option,omitempty"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
