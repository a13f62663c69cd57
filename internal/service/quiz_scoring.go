package service

import "lms_backend/internal/model"

// ScoreResult is the outcome of scoring an attempt's current answer set.
type ScoreResult struct {
	EarnedPoints  float64 `json:"earnedPoints"`
	TotalPoints   float64 `json:"totalPoints"`
	ScoreScaled10 float64 `json:"scoreScaled10"`
}

type questionScore struct {
	points  float64
	correct bool
}

// ComputeScore scores answers against the questions they touch. Only answered
// questions count toward TotalPoints. Questions are reduced in first-seen order
// so the result does not depend on map iteration.
func ComputeScore(answers []model.QuizAnswer) ScoreResult {
	order := make([]uint, 0, len(answers))
	byQuestion := make(map[uint]questionScore, len(answers))

	for _, a := range answers {
		if _, seen := byQuestion[a.QuestionID]; seen {
			continue
		}
		qs := questionScore{}
		if a.Question != nil {
			qs.points = a.Question.Points
		}
		if a.Option != nil {
			qs.correct = a.Option.IsCorrect
		}
		byQuestion[a.QuestionID] = qs
		order = append(order, a.QuestionID)
	}

	var res ScoreResult
	for _, id := range order {
		qs := byQuestion[id]
		res.TotalPoints += qs.points
		if qs.correct {
			res.EarnedPoints += qs.points
		}
	}
	if res.TotalPoints > 0 {
		res.ScoreScaled10 = res.EarnedPoints / res.TotalPoints * 10
	}
	return res
}
