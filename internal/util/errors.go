package util

import (
	"errors"
	"fmt"
)

// Error kinds. Services wrap one of these so controllers can map them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

var (
	ErrAttemptNotFound  = fmt.Errorf("attempt %w", ErrNotFound)
	ErrAnswerNotFound   = fmt.Errorf("answer %w", ErrNotFound)
	ErrLessonNotFound   = fmt.Errorf("lesson %w", ErrNotFound)
	ErrQuizNotFound     = fmt.Errorf("quiz %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)

	ErrPermissionDenied = fmt.Errorf("%w: attempt belongs to another student", ErrForbidden)

	ErrAttemptNotInProgress = fmt.Errorf("%w: attempt is not in progress", ErrInvalidState)
	ErrAttemptLimitReached  = fmt.Errorf("%w: attempt limit reached", ErrInvalidState)

	ErrQuizMismatch        = fmt.Errorf("%w: quiz does not belong to lesson", ErrValidation)
	ErrQuestionNotInQuiz   = fmt.Errorf("%w: question does not belong to the attempt's quiz", ErrValidation)
	ErrOptionNotInQuestion = fmt.Errorf("%w: option does not belong to question", ErrValidation)
	ErrInvalidID           = fmt.Errorf("%w: id must be a positive integer", ErrValidation)
)
