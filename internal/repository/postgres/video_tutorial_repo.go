package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// VideoTutorialRepo реализует repository.VideoTutorialRepository
type VideoTutorialRepo struct {
	db *gorm.DB
}

// NewVideoTutorialRepo создает новый репозиторий видеоуроков
func NewVideoTutorialRepo(db *gorm.DB) *VideoTutorialRepo {
	return &VideoTutorialRepo{db: db}
}

// Create сохраняет видеоурок
func (r *VideoTutorialRepo) Create(ctx context.Context, tutorial *entity.VideoTutorial) error {
	return translateError(r.db.WithContext(ctx).Create(tutorial).Error)
}

// GetByID возвращает активный видеоурок по ID
func (r *VideoTutorialRepo) GetByID(ctx context.Context, id uint) (*entity.VideoTutorial, error) {
	var tutorial entity.VideoTutorial
	err := r.db.WithContext(ctx).Scopes(activeOnly("video_tutorials")).First(&tutorial, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &tutorial, nil
}
