package repository

import (
	"context"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов.
// Вопросы загружаются вместе с активными вариантами ответа, упорядоченными по position.
type QuestionRepository interface {
	// Create сохраняет вопрос вместе с вариантами. ErrConflict при занятой позиции.
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	GetByQuizID(ctx context.Context, quizID uint) ([]entity.Question, error)
	GetByQuizAndPosition(ctx context.Context, quizID uint, position int) (*entity.Question, error)
	// GetByIDs возвращает найденные вопросы, отсутствующие ID пропускаются
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error)
	// Update сохраняет поля вопроса (без вариантов). ErrConflict при занятой позиции.
	Update(ctx context.Context, question *entity.Question) error
	// SoftDelete помечает вопрос и его варианты неактивными
	SoftDelete(ctx context.Context, question *entity.Question) error
}

// ChoiceRepository определяет методы для работы с вариантами ответа
type ChoiceRepository interface {
	// Create возвращает ErrConflict при занятой позиции внутри вопроса
	Create(ctx context.Context, choice *entity.Choice) error
	GetByID(ctx context.Context, id uint) (*entity.Choice, error)
	Update(ctx context.Context, choice *entity.Choice) error
	SoftDelete(ctx context.Context, choice *entity.Choice) error
}
