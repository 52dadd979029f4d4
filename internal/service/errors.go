package service

import (
	"fmt"

	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

// Ошибки сервисов. Каждая оборачивает общую ошибку из apperrors,
// поэтому хендлеры сопоставляют их со статусами через errors.Is.
var (
	ErrMustStartQuiz    = fmt.Errorf("%w: must start quiz or be owner", apperrors.ErrValidation)
	ErrAttemptComplete  = fmt.Errorf("%w: quiz attempt already completed", apperrors.ErrConflict)
	ErrAttemptExists    = fmt.Errorf("%w: quiz already started", apperrors.ErrConflict)
	ErrAlreadyAnswered  = fmt.Errorf("%w: question already answered", apperrors.ErrConflict)
	ErrQuizLocked       = fmt.Errorf("%w: quiz already has attempts, questions are frozen", apperrors.ErrConflict)
	ErrQuizExists       = fmt.Errorf("%w: video tutorial already has a quiz", apperrors.ErrConflict)
	ErrNotQuizOwner     = fmt.Errorf("%w: not the quiz owner", apperrors.ErrForbidden)
	ErrNoAnswers        = fmt.Errorf("%w: no answers submitted", apperrors.ErrValidation)
	ErrTooManyAnswers   = fmt.Errorf("%w: too many answers in one request", apperrors.ErrValidation)
	ErrNotYoutubeLink   = fmt.Errorf("%w: provided link is not a valid youtube link", apperrors.ErrValidation)
	ErrUnresolvableLink = fmt.Errorf("%w: unable to process link, check that video exists", apperrors.ErrValidation)
)
