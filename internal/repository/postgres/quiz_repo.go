package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину.
// Уникальный индекс по video_tutorial_id гарантирует одну викторину на видеоурок.
func (r *QuizRepo) Create(ctx context.Context, quiz *entity.Quiz) error {
	return translateError(r.db.WithContext(ctx).Omit("VideoTutorial", "Questions").Create(quiz).Error)
}

// GetByID возвращает активную викторину по ID
func (r *QuizRepo) GetByID(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).Scopes(activeOnly("quizzes")).First(&quiz, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &quiz, nil
}

// GetWithTutorial возвращает викторину вместе с видеоуроком
func (r *QuizRepo) GetWithTutorial(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("quizzes")).
		Preload("VideoTutorial").
		First(&quiz, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &quiz, nil
}

// List возвращает список викторин с фильтрами и total count
func (r *QuizRepo) List(ctx context.Context, filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) {
	var quizzes []entity.Quiz
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Quiz{}).Scopes(activeOnly("quizzes"))

	if filters.VideoTutorialID != nil {
		query = query.Where("video_tutorial_id = ?", *filters.VideoTutorialID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("id DESC").Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}
