package repository

import (
	"context"
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками прохождения викторин
type AttemptRepository interface {
	// Create атомарно проверяет уникальность (quiz_id, user_id) и вставляет запись.
	// При нарушении уникальности возвращает ErrConflict.
	Create(ctx context.Context, attempt *entity.Attempt) error
	GetByQuizAndUser(ctx context.Context, quizID, userID uint) (*entity.Attempt, error)
	// GetByQuizAndUserForUpdate блокирует строку попытки до конца транзакции
	GetByQuizAndUserForUpdate(ctx context.Context, quizID, userID uint) (*entity.Attempt, error)
	GetByID(ctx context.Context, id uint) (*entity.Attempt, error)
	Update(ctx context.Context, attempt *entity.Attempt) error
	MarkNotified(ctx context.Context, attemptID uint) error
	ListByQuiz(ctx context.Context, quizID uint) ([]entity.Attempt, error)
	CountByQuiz(ctx context.Context, quizID uint) (int64, error)
	// ListPendingNotification возвращает завершенные попытки без отправленного письма,
	// у которых наступило время повтора и число неудач меньше maxFailures (0 - без ограничения)
	ListPendingNotification(ctx context.Context, now time.Time, maxFailures, limit int) ([]entity.Attempt, error)
	// RecordNotifyFailure увеличивает счетчик неудачных отправок и откладывает следующую
	RecordNotifyFailure(ctx context.Context, attemptID uint, retryAt time.Time) error
}

// AnswerRepository определяет методы для работы с ответами
type AnswerRepository interface {
	// CreateBatch вставляет ответы. При нарушении уникальности
	// (attempt_id, question_id) или (question_id, created_by) возвращает ErrConflict.
	CreateBatch(ctx context.Context, answers []entity.Answer) error
	GetByAttempt(ctx context.Context, attemptID uint) ([]entity.Answer, error)
	ExistsForQuestionByUser(ctx context.Context, questionID, userID uint) (bool, error)
	GetByUserAndQuestions(ctx context.Context, userID uint, questionIDs []uint) ([]entity.Answer, error)
	UpdateValidity(ctx context.Context, answerID uint, isValid bool) error
}

// ActivityRepository определяет методы журнала событий попыток
type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.AttemptActivity) error
	ListByAttempt(ctx context.Context, attemptID uint) ([]entity.AttemptActivity, error)
}
