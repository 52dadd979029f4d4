package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/eneza-api/internal/domain/repository"
)

// Store реализует repository.Store поверх одного *gorm.DB (соединения или транзакции)
type Store struct {
	db *gorm.DB
}

// NewStore создает хранилище Postgres
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Quizzes() repository.QuizRepository {
	return NewQuizRepo(s.db)
}

func (s *Store) VideoTutorials() repository.VideoTutorialRepository {
	return NewVideoTutorialRepo(s.db)
}

func (s *Store) Questions() repository.QuestionRepository {
	return NewQuestionRepo(s.db)
}

func (s *Store) Choices() repository.ChoiceRepository {
	return NewChoiceRepo(s.db)
}

func (s *Store) Attempts() repository.AttemptRepository {
	return NewAttemptRepo(s.db)
}

func (s *Store) Answers() repository.AnswerRepository {
	return NewAnswerRepo(s.db)
}

func (s *Store) Activities() repository.ActivityRepository {
	return NewActivityRepo(s.db)
}

func (s *Store) Users() repository.UserRepository {
	return NewUserRepo(s.db)
}

// WithTx выполняет fn в транзакции GORM. Внутри уже открытой транзакции создается savepoint.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
