package repository

import (
	"context"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// UserRepository предоставляет чтение пользователей сервиса идентификации
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.User, error)
}
