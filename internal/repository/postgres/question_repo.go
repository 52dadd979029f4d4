package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// withChoices подгружает активные варианты ответа в порядке position
func withChoices(db *gorm.DB) *gorm.DB {
	return db.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Scopes(activeOnly("choices")).Order("choices.position")
	})
}

// Create создает вопрос вместе с вариантами ответа.
// Частичный уникальный индекс (quiz_id, position) WHERE is_active дает ErrConflict при занятой позиции.
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return translateError(r.db.WithContext(ctx).Create(question).Error)
}

// GetByID возвращает активный вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("questions"), withChoices).
		First(&question, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

// GetByQuizID возвращает все активные вопросы викторины, упорядоченные по position
func (r *QuestionRepo) GetByQuizID(ctx context.Context, quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("questions"), withChoices).
		Where("quiz_id = ?", quizID).
		Order("position").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByQuizAndPosition возвращает вопрос викторины на заданной позиции
func (r *QuestionRepo) GetByQuizAndPosition(ctx context.Context, quizID uint, position int) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("questions"), withChoices).
		Where("quiz_id = ? AND position = ?", quizID, position).
		First(&question).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

// GetByIDs возвращает активные вопросы по списку ID
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error) {
	var questions []entity.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(activeOnly("questions"), withChoices).
		Where("id IN ?", ids).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Update сохраняет поля вопроса без вариантов ответа
func (r *QuestionRepo) Update(ctx context.Context, question *entity.Question) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(question).Error)
}

// SoftDelete помечает вопрос и все его варианты неактивными
func (r *QuestionRepo) SoftDelete(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(question).Error; err != nil {
			return translateError(err)
		}
		return tx.Model(&entity.Choice{}).
			Where("question_id = ? AND is_active = ?", question.ID, true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_by": question.UpdatedBy,
				"updated_at": time.Now(),
			}).Error
	})
}

// ChoiceRepo реализует repository.ChoiceRepository
type ChoiceRepo struct {
	db *gorm.DB
}

// NewChoiceRepo создает новый репозиторий вариантов ответа
func NewChoiceRepo(db *gorm.DB) *ChoiceRepo {
	return &ChoiceRepo{db: db}
}

// Create создает вариант ответа. ErrConflict при занятой позиции внутри вопроса.
func (r *ChoiceRepo) Create(ctx context.Context, choice *entity.Choice) error {
	return translateError(r.db.WithContext(ctx).Create(choice).Error)
}

// GetByID возвращает активный вариант ответа по ID
func (r *ChoiceRepo) GetByID(ctx context.Context, id uint) (*entity.Choice, error) {
	var choice entity.Choice
	err := r.db.WithContext(ctx).Scopes(activeOnly("choices")).First(&choice, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &choice, nil
}

// Update сохраняет вариант ответа
func (r *ChoiceRepo) Update(ctx context.Context, choice *entity.Choice) error {
	return translateError(r.db.WithContext(ctx).Save(choice).Error)
}

// SoftDelete сохраняет вариант, уже помеченный неактивным
func (r *ChoiceRepo) SoftDelete(ctx context.Context, choice *entity.Choice) error {
	return translateError(r.db.WithContext(ctx).Save(choice).Error)
}
