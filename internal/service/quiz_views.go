package service

import (
	"time"

	"lms_backend/internal/model"
)

// OptionView hides IsCorrect (nil) when the caller may not see answers.
type OptionView struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"questionId"`
	Content    string `json:"content"`
	IsCorrect  *bool  `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID      uint    `json:"id"`
	QuizID  uint    `json:"quizId"`
	Content string  `json:"content"`
	Points  float64 `json:"points"`
	Order   int     `json:"order"`
}

// AnswerView 作答记录（附带题目与选项）
type AnswerView struct {
	AttemptID  uint          `json:"attemptId"`
	QuestionID uint          `json:"questionId"`
	OptionID   uint          `json:"optionId"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Question   *QuestionView `json:"question,omitempty"`
	Option     *OptionView   `json:"option,omitempty"`
}

// AttemptDetailView is the gated read model returned by GetAttempt.
// Scores are nil when hidden, regardless of what is stored.
type AttemptDetailView struct {
	ID             uint                `json:"id"`
	LessonID       uint                `json:"lessonId"`
	QuizID         uint                `json:"quizId"`
	StudentID      uint                `json:"studentId"`
	Status         model.AttemptStatus `json:"status"`
	StartedAt      time.Time           `json:"startedAt"`
	SubmittedAt    *time.Time          `json:"submittedAt"`
	ScoreRaw       *float64            `json:"scoreRaw"`
	ScoreScaled10  *float64            `json:"scoreScaled10"`
	CanViewAnswers bool                `json:"canViewAnswers"`
	CanViewScore   bool                `json:"canViewScore"`
	Answers        []AnswerView        `json:"answers"`
}

// visibility decides what a caller may see of an attempt. Non-students see everything.
type visibility struct {
	answers bool
	score   bool
}

func visibilityFor(role model.UserRole, lesson *model.Lesson) visibility {
	if !role.IsStudent() {
		return visibility{answers: true, score: true}
	}
	if lesson == nil {
		return visibility{}
	}
	return visibility{answers: lesson.ShowQuizAnswers, score: lesson.ShowQuizScore}
}

func newAnswerView(a model.QuizAnswer, vis visibility) AnswerView {
	v := AnswerView{
		AttemptID:  a.AttemptID,
		QuestionID: a.QuestionID,
		OptionID:   a.OptionID,
		UpdatedAt:  a.UpdatedAt,
	}
	if q := a.Question; q != nil {
		v.Question = &QuestionView{
			ID:      q.ID,
			QuizID:  q.QuizID,
			Content: q.Content,
			Points:  q.Points,
			Order:   q.Order,
		}
	}
	if o := a.Option; o != nil {
		v.Option = &OptionView{
			ID:         o.ID,
			QuestionID: o.QuestionID,
			Content:    o.Content,
		}
		if vis.answers {
			correct := o.IsCorrect
			v.Option.IsCorrect = &correct
		}
	}
	return v
}

func newAttemptDetailView(a *model.QuizAttempt, vis visibility) *AttemptDetailView {
	v := &AttemptDetailView{
		ID:             a.ID,
		LessonID:       a.LessonID,
		QuizID:         a.QuizID,
		StudentID:      a.StudentID,
		Status:         a.Status,
		StartedAt:      a.StartedAt,
		SubmittedAt:    a.SubmittedAt,
		CanViewAnswers: vis.answers,
		CanViewScore:   vis.score,
		Answers:        make([]AnswerView, 0, len(a.Answers)),
	}
	if vis.score {
		v.ScoreRaw = copyFloat(a.ScoreRaw)
		v.ScoreScaled10 = copyFloat(a.ScoreScaled10)
	}
	for _, ans := range a.Answers {
		v.Answers = append(v.Answers, newAnswerView(ans, vis))
	}
	return v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
