package model

// Lesson is owned by the course catalog. Only the quiz link and the two
// visibility flags are read by the quiz attempt engine.
// swagger:model Lesson
type Lesson struct {
	BaseModel
	Title           string `gorm:"size:200;not null" json:"title"`
	QuizID          *uint  `gorm:"index" json:"quizId,omitempty"`
	ShowQuizAnswers bool   `gorm:"default:false" json:"showQuizAnswers"`
	ShowQuizScore   bool   `gorm:"default:false" json:"showQuizScore"`
}

func (Lesson) TableName() string {
	return "lessons"
}
