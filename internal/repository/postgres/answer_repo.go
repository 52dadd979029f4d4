package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// CreateBatch вставляет ответы одним INSERT.
// Уникальные индексы idx_answer_attempt_question и idx_answer_question_user дают ErrConflict.
func (r *AnswerRepo) CreateBatch(ctx context.Context, answers []entity.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&answers).Error)
}

// GetByAttempt возвращает активные ответы попытки
func (r *AnswerRepo) GetByAttempt(ctx context.Context, attemptID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("answers")).
		Where("attempt_id = ?", attemptID).
		Order("id").
		Find(&answers).Error
	return answers, err
}

// ExistsForQuestionByUser проверяет, отвечал ли пользователь на вопрос
func (r *AnswerRepo) ExistsForQuestionByUser(ctx context.Context, questionID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Scopes(activeOnly("answers")).
		Where("question_id = ? AND created_by = ?", questionID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByUserAndQuestions возвращает ответы пользователя на указанные вопросы
func (r *AnswerRepo) GetByUserAndQuestions(ctx context.Context, userID uint, questionIDs []uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	if len(questionIDs) == 0 {
		return answers, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("answers")).
		Where("created_by = ? AND question_id IN ?", userID, questionIDs).
		Find(&answers).Error
	return answers, err
}

// UpdateValidity точечно сохраняет результат проверки ответа
func (r *AnswerRepo) UpdateValidity(ctx context.Context, answerID uint, isValid bool) error {
	return r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Where("id = ?", answerID).
		Update("is_valid", isValid).Error
}

// ActivityRepo реализует repository.ActivityRepository
type ActivityRepo struct {
	db *gorm.DB
}

// NewActivityRepo создает новый репозиторий журнала попыток
func NewActivityRepo(db *gorm.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Create добавляет запись в журнал
func (r *ActivityRepo) Create(ctx context.Context, activity *entity.AttemptActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// ListByAttempt возвращает журнал попытки в хронологическом порядке
func (r *ActivityRepo) ListByAttempt(ctx context.Context, attemptID uint) ([]entity.AttemptActivity, error) {
	var activities []entity.AttemptActivity
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("attempt_activities")).
		Where("attempt_id = ?", attemptID).
		Order("id").
		Find(&activities).Error
	return activities, err
}
