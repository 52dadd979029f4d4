package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create вставляет попытку. Проверка "одна попытка на (quiz_id, user_id)" выполняется
// уникальным индексом idx_attempt_quiz_user, поэтому конкурентные вставки дают ErrConflict.
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.Attempt) error {
	return translateError(r.db.WithContext(ctx).Create(attempt).Error)
}

// GetByQuizAndUser возвращает попытку пользователя для викторины
func (r *AttemptRepo) GetByQuizAndUser(ctx context.Context, quizID, userID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("attempts")).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		First(&attempt).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &attempt, nil
}

// GetByQuizAndUserForUpdate возвращает попытку с блокировкой SELECT ... FOR UPDATE.
// Имеет смысл только внутри транзакции.
func (r *AttemptRepo) GetByQuizAndUserForUpdate(ctx context.Context, quizID, userID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(activeOnly("attempts")).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		First(&attempt).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &attempt, nil
}

// GetByID возвращает активную попытку по ID
func (r *AttemptRepo) GetByID(ctx context.Context, id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).Scopes(activeOnly("attempts")).First(&attempt, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &attempt, nil
}

// Update сохраняет попытку целиком
func (r *AttemptRepo) Update(ctx context.Context, attempt *entity.Attempt) error {
	return translateError(r.db.WithContext(ctx).Save(attempt).Error)
}

// MarkNotified точечно выставляет флаг отправленного письма
func (r *AttemptRepo) MarkNotified(ctx context.Context, attemptID uint) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Attempt{}).
		Where("id = ?", attemptID).
		Update("notified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// ListByQuiz возвращает все активные попытки викторины
func (r *AttemptRepo) ListByQuiz(ctx context.Context, quizID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("attempts")).
		Where("quiz_id = ?", quizID).
		Order("start").
		Find(&attempts).Error
	return attempts, err
}

// CountByQuiz возвращает количество попыток викторины (включая незавершенные)
func (r *AttemptRepo) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Attempt{}).
		Scopes(activeOnly("attempts")).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

// ListPendingNotification возвращает завершенные попытки без отправленного письма
func (r *AttemptRepo) ListPendingNotification(ctx context.Context, now time.Time, maxFailures, limit int) ([]entity.Attempt, error) {
	query := r.db.WithContext(ctx).
		Scopes(activeOnly("attempts")).
		Where("complete = ? AND notified = ?", true, false).
		Where("notify_retry_at IS NULL OR notify_retry_at <= ?", now)
	if maxFailures > 0 {
		query = query.Where("notify_failures < ?", maxFailures)
	}

	var attempts []entity.Attempt
	err := query.Order("id").Limit(limit).Find(&attempts).Error
	return attempts, err
}

// RecordNotifyFailure увеличивает счетчик неудачных отправок
func (r *AttemptRepo) RecordNotifyFailure(ctx context.Context, attemptID uint, retryAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Attempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"notify_failures": gorm.Expr("notify_failures + 1"),
			"notify_retry_at": retryAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}
