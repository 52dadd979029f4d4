package repository

import (
	"context"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// QuizFilters определяет фильтры для поиска викторин
type QuizFilters struct {
	VideoTutorialID *uint // Фильтр по видеоуроку
	CreatedBy       *uint // Фильтр по автору
}

// QuizRepository определяет методы для работы с викторинами.
// Все методы чтения возвращают только активные записи.
type QuizRepository interface {
	// Create возвращает ErrConflict, если для видеоурока уже есть викторина
	Create(ctx context.Context, quiz *entity.Quiz) error
	GetByID(ctx context.Context, id uint) (*entity.Quiz, error)
	// GetWithTutorial загружает викторину вместе с видеоуроком (для названия)
	GetWithTutorial(ctx context.Context, id uint) (*entity.Quiz, error)
	List(ctx context.Context, filters QuizFilters, limit, offset int) ([]entity.Quiz, int64, error)
}
