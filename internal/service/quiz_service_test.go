package service

import (
	"context"
	"sync"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	studentA uint = 100
	studentB uint = 200
	teacher  uint = 300
)

type quizEnv struct {
	db       *gorm.DB
	attempts *QuizAttemptService
	answers  *QuizAnswerService
}

func newQuizEnv(t *testing.T, maxAttempts int) *quizEnv {
	t.Helper()
	db := testutil.DB(t)
	lessonRepo := repository.NewLessonRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	answerRepo := repository.NewQuizAnswerRepository(db)
	locker := NewMemoryAttemptLocker()
	return &quizEnv{
		db:       db,
		attempts: NewQuizAttemptService(attemptRepo, lessonRepo, locker, db, maxAttempts),
		answers:  NewQuizAnswerService(answerRepo, attemptRepo, lessonRepo, locker, db),
	}
}

func (e *quizEnv) start(t *testing.T, f *testutil.QuizFixture, studentID uint) *model.QuizAttempt {
	t.Helper()
	a, err := e.attempts.CreateAttempt(context.Background(), studentID, CreateAttemptRequest{
		LessonID: f.Lesson.ID,
		QuizID:   f.Quiz.ID,
	})
	require.NoError(t, err)
	return a
}

func (e *quizEnv) choose(t *testing.T, attemptID, studentID uint, q model.QuizQuestion, o model.QuizOption) *AnswerView {
	t.Helper()
	v, err := e.answers.UpsertAnswer(context.Background(), studentID, attemptID, UpsertAnswerRequest{
		QuestionID: q.ID,
		OptionID:   o.ID,
	})
	require.NoError(t, err)
	return v
}

func (e *quizEnv) stored(t *testing.T, attemptID uint) model.QuizAttempt {
	t.Helper()
	var a model.QuizAttempt
	require.NoError(t, e.db.First(&a, attemptID).Error)
	return a
}

func TestCreateAttempt(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)

	a := env.start(t, f, studentA)
	assert.Equal(t, model.AttemptInProgress, a.Status)
	assert.Equal(t, f.Lesson.ID, a.LessonID)
	assert.Equal(t, f.Quiz.ID, a.QuizID)
	assert.Equal(t, studentA, a.StudentID)
	assert.False(t, a.StartedAt.IsZero())
	assert.Nil(t, a.SubmittedAt)
	assert.Nil(t, a.ScoreRaw)
	assert.Nil(t, a.ScoreScaled10)

	// 同一学生可以多次作答
	b := env.start(t, f, studentA)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateAttemptRejectsBadLesson(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)
	noQuiz := testutil.SeedLesson(t, env.db, nil, false, false)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateAttemptRequest
		kind error
	}{
		{"missing lesson", CreateAttemptRequest{LessonID: 9999, QuizID: f.Quiz.ID}, util.ErrNotFound},
		{"lesson without quiz", CreateAttemptRequest{LessonID: noQuiz.ID, QuizID: f.Quiz.ID}, util.ErrNotFound},
		{"quiz mismatch", CreateAttemptRequest{LessonID: f.Lesson.ID, QuizID: f.Quiz.ID + 1}, util.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.attempts.CreateAttempt(ctx, studentA, tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestCreateAttemptLimit(t *testing.T) {
	env := newQuizEnv(t, 2)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)
	ctx := context.Background()
	req := CreateAttemptRequest{LessonID: f.Lesson.ID, QuizID: f.Quiz.ID}

	env.start(t, f, studentA)
	env.start(t, f, studentA)
	_, err := env.attempts.CreateAttempt(ctx, studentA, req)
	assert.ErrorIs(t, err, util.ErrAttemptLimitReached)
	assert.ErrorIs(t, err, util.ErrInvalidState)

	// 其他学生不受影响
	env.start(t, f, studentB)

	// 热更新后放开限制
	env.attempts.SetMaxAttempts(0)
	env.start(t, f, studentA)
}

func TestCreateAttemptLimitUnderConcurrency(t *testing.T) {
	env := newQuizEnv(t, 2)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)
	req := CreateAttemptRequest{LessonID: f.Lesson.ID, QuizID: f.Quiz.ID}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.attempts.CreateAttempt(context.Background(), studentA, req)
			if err != nil {
				assert.ErrorIs(t, err, util.ErrAttemptLimitReached)
				return
			}
			mu.Lock()
			created++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, created)
	count, err := env.attempts.AttemptRepo.CountByStudentAndLesson(context.Background(), nil, studentA, f.Lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSubmitAttempt(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)
	ctx := context.Background()
	a := env.start(t, f, studentA)

	_, err := env.attempts.SubmitAttempt(ctx, studentB, a.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	submitted, err := env.attempts.SubmitAttempt(ctx, studentA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	before := env.stored(t, a.ID)
	_, err = env.attempts.SubmitAttempt(ctx, studentA, a.ID)
	assert.ErrorIs(t, err, util.ErrInvalidState)

	after := env.stored(t, a.ID)
	assert.Equal(t, before.Status, after.Status)
	assert.True(t, before.SubmittedAt.Equal(*after.SubmittedAt))

	_, err = env.attempts.SubmitAttempt(ctx, studentA, 9999)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestSubmitGradedAttemptFails(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)
	a := testutil.SeedAttempt(t, env.db, f, studentA, model.AttemptGraded)

	_, err := env.attempts.SubmitAttempt(context.Background(), studentA, a.ID)
	assert.ErrorIs(t, err, util.ErrAttemptNotInProgress)
}

func TestScoringScenario(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 2.0, 3.0)
	a := env.start(t, f, studentA)

	env.choose(t, a.ID, studentA, f.Questions[1], f.Wrong(1))

	steps := []struct {
		name     string
		question int
		correct  bool
		raw      float64
		scaled   float64
	}{
		{"Q1 correct, Q2 wrong", 0, true, 2, 4},
		{"Q2 changed to correct", 1, true, 5, 10},
		{"Q1 changed to wrong", 0, false, 3, 6},
	}
	for _, st := range steps {
		opt := f.Wrong(st.question)
		if st.correct {
			opt = f.Correct(st.question)
		}
		env.choose(t, a.ID, studentA, f.Questions[st.question], opt)

		got := env.stored(t, a.ID)
		require.NotNil(t, got.ScoreRaw, st.name)
		require.NotNil(t, got.ScoreScaled10, st.name)
		assert.InDelta(t, st.raw, *got.ScoreRaw, 1e-9, st.name)
		assert.InDelta(t, st.scaled, *got.ScoreScaled10, 1e-9, st.name)
	}
}

func TestScoringOnlyAnsweredQuestionsCount(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 2.0, 3.0)
	a := env.start(t, f, studentA)

	env.choose(t, a.ID, studentA, f.Questions[0], f.Correct(0))
	got := env.stored(t, a.ID)
	assert.InDelta(t, 2.0, *got.ScoreRaw, 1e-9)
	assert.InDelta(t, 10.0, *got.ScoreScaled10, 1e-9)

	env.choose(t, a.ID, studentA, f.Questions[1], f.Wrong(1))
	got = env.stored(t, a.ID)
	assert.InDelta(t, 2.0, *got.ScoreRaw, 1e-9)
	assert.InDelta(t, 4.0, *got.ScoreScaled10, 1e-9)
}

func TestUpsertReplacesAnswer(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 1)
	a := env.start(t, f, studentA)
	q := f.Questions[0]

	for _, o := range []model.QuizOption{f.Correct(0), f.Wrong(0), f.Correct(0), f.Wrong(0)} {
		v := env.choose(t, a.ID, studentA, q, o)
		assert.Equal(t, o.ID, v.OptionID)
		require.NotNil(t, v.Question)
		require.NotNil(t, v.Option)
		assert.Equal(t, q.ID, v.Question.ID)
	}

	var rows []model.QuizAnswer
	require.NoError(t, env.db.Where("attempt_id = ? AND question_id = ?", a.ID, q.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, f.Wrong(0).ID, rows[0].OptionID)
}

func TestUpsertAnswerValidation(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 1, 1)
	other := testutil.SeedQuizLesson(t, env.db, true, true, 1)
	a := env.start(t, f, studentA)
	ctx := context.Background()

	tests := []struct {
		name string
		req  UpsertAnswerRequest
		kind error
	}{
		{"question from another quiz", UpsertAnswerRequest{QuestionID: other.Questions[0].ID, OptionID: other.Correct(0).ID}, util.ErrQuestionNotInQuiz},
		{"option from another question", UpsertAnswerRequest{QuestionID: f.Questions[0].ID, OptionID: f.Correct(1).ID}, util.ErrOptionNotInQuestion},
		{"unknown question", UpsertAnswerRequest{QuestionID: 9999, OptionID: f.Correct(0).ID}, util.ErrQuestionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.answers.UpsertAnswer(ctx, studentA, a.ID, tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	var count int64
	env.db.Model(&model.QuizAnswer{}).Where("attempt_id = ?", a.ID).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteAnswer(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 2.0, 3.0)
	a := env.start(t, f, studentA)
	ctx := context.Background()

	env.choose(t, a.ID, studentA, f.Questions[0], f.Correct(0))
	env.choose(t, a.ID, studentA, f.Questions[1], f.Wrong(1))

	require.NoError(t, env.answers.DeleteAnswer(ctx, studentA, a.ID, f.Questions[1].ID))
	got := env.stored(t, a.ID)
	assert.InDelta(t, 2.0, *got.ScoreRaw, 1e-9)
	assert.InDelta(t, 10.0, *got.ScoreScaled10, 1e-9)

	err := env.answers.DeleteAnswer(ctx, studentA, a.ID, f.Questions[1].ID)
	assert.ErrorIs(t, err, util.ErrAnswerNotFound)

	// 删除全部答案后分数为 0 而不是 null
	require.NoError(t, env.answers.DeleteAnswer(ctx, studentA, a.ID, f.Questions[0].ID))
	got = env.stored(t, a.ID)
	require.NotNil(t, got.ScoreRaw)
	require.NotNil(t, got.ScoreScaled10)
	assert.Zero(t, *got.ScoreRaw)
	assert.Zero(t, *got.ScoreScaled10)
}

func TestMutationsRequireOwnerAndInProgress(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 1)
	a := env.start(t, f, studentA)
	ctx := context.Background()
	q, o := f.Questions[0], f.Correct(0)
	env.choose(t, a.ID, studentA, q, o)

	_, err := env.answers.UpsertAnswer(ctx, studentB, a.ID, UpsertAnswerRequest{QuestionID: q.ID, OptionID: o.ID})
	assert.ErrorIs(t, err, util.ErrForbidden)
	assert.ErrorIs(t, env.answers.DeleteAnswer(ctx, studentB, a.ID, q.ID), util.ErrForbidden)

	_, err = env.answers.UpsertAnswer(ctx, studentA, 9999, UpsertAnswerRequest{QuestionID: q.ID, OptionID: o.ID})
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)

	_, err = env.attempts.SubmitAttempt(ctx, studentA, a.ID)
	require.NoError(t, err)

	_, err = env.answers.UpsertAnswer(ctx, studentA, a.ID, UpsertAnswerRequest{QuestionID: q.ID, OptionID: f.Wrong(0).ID})
	assert.ErrorIs(t, err, util.ErrInvalidState)
	assert.ErrorIs(t, env.answers.DeleteAnswer(ctx, studentA, a.ID, q.ID), util.ErrInvalidState)

	// 非本人访问已提交的作答仍返回 forbidden
	assert.ErrorIs(t, env.answers.DeleteAnswer(ctx, studentB, a.ID, q.ID), util.ErrForbidden)

	var rows []model.QuizAnswer
	require.NoError(t, env.db.Where("attempt_id = ?", a.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, o.ID, rows[0].OptionID)
}

func TestGetAttemptGating(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, false, true, 2.0, 3.0)
	a := env.start(t, f, studentA)
	ctx := context.Background()
	env.choose(t, a.ID, studentA, f.Questions[0], f.Correct(0))

	v, err := env.attempts.GetAttempt(ctx, studentA, model.Student, a.ID)
	require.NoError(t, err)
	assert.False(t, v.CanViewAnswers)
	assert.True(t, v.CanViewScore)
	require.NotNil(t, v.ScoreRaw)
	assert.InDelta(t, 2.0, *v.ScoreRaw, 1e-9)
	require.Len(t, v.Answers, 1)
	require.NotNil(t, v.Answers[0].Option)
	assert.Nil(t, v.Answers[0].Option.IsCorrect)
	assert.Equal(t, "right", v.Answers[0].Option.Content)

	testutil.SetLessonFlags(t, env.db, f.Lesson.ID, true, true)
	v, err = env.attempts.GetAttempt(ctx, studentA, model.Student, a.ID)
	require.NoError(t, err)
	assert.True(t, v.CanViewAnswers)
	require.NotNil(t, v.Answers[0].Option.IsCorrect)
	assert.True(t, *v.Answers[0].Option.IsCorrect)
	require.NotNil(t, v.ScoreRaw)

	testutil.SetLessonFlags(t, env.db, f.Lesson.ID, true, false)
	v, err = env.attempts.GetAttempt(ctx, studentA, model.Student, a.ID)
	require.NoError(t, err)
	assert.False(t, v.CanViewScore)
	assert.Nil(t, v.ScoreRaw)
	assert.Nil(t, v.ScoreScaled10)

	// 教师不受课时设置限制
	testutil.SetLessonFlags(t, env.db, f.Lesson.ID, false, false)
	v, err = env.attempts.GetAttempt(ctx, teacher, model.Teacher, a.ID)
	require.NoError(t, err)
	assert.True(t, v.CanViewAnswers)
	assert.True(t, v.CanViewScore)
	require.NotNil(t, v.ScoreScaled10)
	assert.InDelta(t, 10.0, *v.ScoreScaled10, 1e-9)
	require.NotNil(t, v.Answers[0].Option.IsCorrect)
}

func TestGetAttemptOwnership(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 1)
	a := env.start(t, f, studentA)
	ctx := context.Background()

	_, err := env.attempts.GetAttempt(ctx, studentB, model.Student, a.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = env.attempts.GetAttempt(ctx, studentA, model.Student, 9999)
	assert.ErrorIs(t, err, util.ErrNotFound)

	v, err := env.attempts.GetAttempt(ctx, 1, model.Admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, v.ID)
	assert.Empty(t, v.Answers)
	assert.NotNil(t, v.Answers)
}

func TestUpsertResponseHidesCorrectness(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, false, false, 1)
	a := env.start(t, f, studentA)

	v := env.choose(t, a.ID, studentA, f.Questions[0], f.Correct(0))
	require.NotNil(t, v.Option)
	assert.Nil(t, v.Option.IsCorrect)
}

func TestListAttempts(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 1.0, 1.0)
	ctx := context.Background()

	a1 := env.start(t, f, studentA)
	a2 := env.start(t, f, studentA)
	b1 := env.start(t, f, studentB)

	env.choose(t, a1.ID, studentA, f.Questions[0], f.Correct(0))
	env.choose(t, a1.ID, studentA, f.Questions[1], f.Correct(1)) // 10
	env.choose(t, a2.ID, studentA, f.Questions[0], f.Wrong(0))   // 0
	env.choose(t, b1.ID, studentB, f.Questions[0], f.Correct(0))
	env.choose(t, b1.ID, studentB, f.Questions[1], f.Wrong(1)) // 5

	page, err := env.attempts.ListAttempts(ctx, AttemptListQuery{SortBy: "scoreScaled10", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, util.DefaultLimit, page.Limit)
	items := page.List.([]model.QuizAttempt)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{a1.ID, b1.ID, a2.ID}, []uint{items[0].ID, items[1].ID, items[2].ID})

	page, err = env.attempts.ListAttempts(ctx, AttemptListQuery{StudentID: studentA, SortBy: "scoreScaled10", Order: "asc", Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	items = page.List.([]model.QuizAttempt)
	require.Len(t, items, 1)
	assert.Equal(t, a1.ID, items[0].ID)

	_, err = env.attempts.SubmitAttempt(ctx, studentB, b1.ID)
	require.NoError(t, err)
	page, err = env.attempts.ListAttempts(ctx, AttemptListQuery{Status: model.AttemptSubmitted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = env.attempts.ListAttempts(ctx, AttemptListQuery{LessonID: 9999})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.List)
}

func TestAttemptListQueryNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      AttemptListQuery
		want    AttemptListQuery
		wantErr bool
	}{
		{
			name: "defaults",
			in:   AttemptListQuery{},
			want: AttemptListQuery{Page: 1, Limit: 20, SortBy: "submittedAt", Order: "desc"},
		},
		{
			name: "limit capped",
			in:   AttemptListQuery{Page: 3, Limit: 1000, SortBy: "scoreScaled10", Order: "asc"},
			want: AttemptListQuery{Page: 3, Limit: 100, SortBy: "scoreScaled10", Order: "asc"},
		},
		{name: "bad sort", in: AttemptListQuery{SortBy: "studentId"}, wantErr: true},
		{name: "bad order", in: AttemptListQuery{Order: "sideways"}, wantErr: true},
		{name: "bad status", in: AttemptListQuery{Status: "lost"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.in
			err := q.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, util.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestConcurrentUpsertsKeepOneAnswer(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 2.0, 3.0)
	a := env.start(t, f, studentA)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := i % 2
			opt := f.Options[q][i%4/2]
			_, err := env.answers.UpsertAnswer(ctx, studentA, a.ID, UpsertAnswerRequest{
				QuestionID: f.Questions[q].ID,
				OptionID:   opt.ID,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var rows []model.QuizAnswer
	require.NoError(t, env.db.Preload("Question").Preload("Option").
		Where("attempt_id = ?", a.ID).Find(&rows).Error)
	require.Len(t, rows, 2)

	want := ComputeScore(rows)
	got := env.stored(t, a.ID)
	assert.InDelta(t, want.EarnedPoints, *got.ScoreRaw, 1e-9)
	assert.InDelta(t, want.ScoreScaled10, *got.ScoreScaled10, 1e-9)
}

func TestSubmitRacesWithUpsert(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 1.0)
	a := env.start(t, f, studentA)
	ctx := context.Background()

	var wg sync.WaitGroup
	var upsertErr, submitErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, upsertErr = env.answers.UpsertAnswer(ctx, studentA, a.ID, UpsertAnswerRequest{
			QuestionID: f.Questions[0].ID,
			OptionID:   f.Correct(0).ID,
		})
	}()
	go func() {
		defer wg.Done()
		_, submitErr = env.attempts.SubmitAttempt(ctx, studentA, a.ID)
	}()
	wg.Wait()

	require.NoError(t, submitErr)
	got := env.stored(t, a.ID)
	assert.Equal(t, model.AttemptSubmitted, got.Status)

	var count int64
	env.db.Model(&model.QuizAnswer{}).Where("attempt_id = ?", a.ID).Count(&count)
	if upsertErr != nil {
		assert.ErrorIs(t, upsertErr, util.ErrInvalidState)
		assert.Zero(t, count)
	} else {
		assert.Equal(t, int64(1), count)
		require.NotNil(t, got.ScoreRaw)
		assert.InDelta(t, 1.0, *got.ScoreRaw, 1e-9)
	}
}

func TestRescoreAll(t *testing.T) {
	env := newQuizEnv(t, 0)
	f := testutil.SeedQuizLesson(t, env.db, true, true, 2.0, 3.0)
	ctx := context.Background()

	a := env.start(t, f, studentA)
	env.choose(t, a.ID, studentA, f.Questions[0], f.Correct(0))
	env.choose(t, a.ID, studentA, f.Questions[1], f.Wrong(1))
	_, err := env.attempts.SubmitAttempt(ctx, studentA, a.ID)
	require.NoError(t, err)
	b := env.start(t, f, studentB)

	// 模拟分值调整后分数过期
	require.NoError(t, env.db.Model(&model.QuizQuestion{}).Where("id = ?", f.Questions[1].ID).Update("points", 8.0).Error)

	n, err := env.answers.RescoreAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := env.stored(t, a.ID)
	assert.InDelta(t, 2.0, *got.ScoreRaw, 1e-9)
	assert.InDelta(t, 2.0, *got.ScoreScaled10, 1e-9)
	assert.Equal(t, model.AttemptSubmitted, got.Status)

	empty := env.stored(t, b.ID)
	require.NotNil(t, empty.ScoreRaw)
	assert.Zero(t, *empty.ScoreRaw)

	_, err = env.answers.RescoreAttempt(ctx, 9999)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}
