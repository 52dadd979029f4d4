package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// UserRepo реализует repository.UserRepository (только чтение)
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID возвращает активного пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Scopes(activeOnly("users")).First(&user, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}
