package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title     string         `gorm:"size:200;not null" json:"title"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID  uint         `gorm:"index;not null" json:"quizId"`
	Content string       `gorm:"type:text" json:"content"`
	Points  float64      `gorm:"not null;default:0" json:"points"` // 非负权重
	Order   int          `gorm:"default:0" json:"order"`
	Options []QuizOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// swagger:model QuizOption
type QuizOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Content    string `gorm:"type:text" json:"content"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}
