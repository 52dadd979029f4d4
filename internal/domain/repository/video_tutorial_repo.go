package repository

import (
	"context"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// VideoTutorialRepository определяет методы для работы с видеоуроками
type VideoTutorialRepository interface {
	Create(ctx context.Context, tutorial *entity.VideoTutorial) error
	GetByID(ctx context.Context, id uint) (*entity.VideoTutorial, error)
}
