package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	store repository.Store
	now   func() time.Time
}

// NewQuizService создает новый сервис викторин
func NewQuizService(store repository.Store) *QuizService {
	return &QuizService{store: store, now: time.Now}
}

// CreateQuiz создает викторину для видеоурока.
// Создать викторину может только автор видеоурока, и только одну.
func (s *QuizService) CreateQuiz(ctx context.Context, videoTutorialID, userID uint) (*entity.Quiz, error) {
	tutorial, err := s.store.VideoTutorials().GetByID(ctx, videoTutorialID)
	if err != nil {
		return nil, fmt.Errorf("video tutorial #%d: %w", videoTutorialID, err)
	}
	if err := RequireOwner(tutorial, userID); err != nil {
		return nil, err
	}

	quiz := &entity.Quiz{VideoTutorialID: videoTutorialID}
	entity.Stamp(quiz, userID, s.now())
	if err := s.store.Quizzes().Create(ctx, quiz); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, ErrQuizExists
		}
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	quiz.VideoTutorial = tutorial

	log.Printf("[QuizService] Пользователь #%d создал викторину #%d для видеоурока #%d", userID, quiz.ID, videoTutorialID)
	return quiz, nil
}

// GetQuizByID возвращает викторину вместе с видеоуроком
func (s *QuizService) GetQuizByID(ctx context.Context, quizID uint) (*entity.Quiz, error) {
	quiz, err := s.store.Quizzes().GetWithTutorial(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	return quiz, nil
}

// ListQuizzes возвращает викторины с фильтрами и total count
func (s *QuizService) ListQuizzes(ctx context.Context, filters repository.QuizFilters, page, pageSize int) ([]entity.Quiz, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.Quizzes().List(ctx, filters, pageSize, (page-1)*pageSize)
}
