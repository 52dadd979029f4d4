package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

// ChoiceInput - данные нового варианта ответа
type ChoiceInput struct {
	Position  int
	Text      string
	IsCorrect bool
}

// QuestionInput - данные нового вопроса
type QuestionInput struct {
	Kind            entity.QuestionKind
	Position        int
	Content         string
	Points          int
	ReferenceAnswer string
	Choices         []ChoiceInput
}

// QuestionPatch - частичное обновление вопроса (nil - поле не меняется)
type QuestionPatch struct {
	Position        *int
	Content         *string
	Points          *int
	ReferenceAnswer *string
}

// ChoicePatch - частичное обновление варианта ответа
type ChoicePatch struct {
	Position  *int
	Text      *string
	IsCorrect *bool
}

// QuestionService управляет банком вопросов викторин
type QuestionService struct {
	store     repository.Store
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewQuestionService создает новый сервис банка вопросов
func NewQuestionService(store repository.Store, cacheRepo repository.CacheRepository, cacheTTL time.Duration) *QuestionService {
	return &QuestionService{
		store:     store,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func questionsCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:questions", quizID)
}

// ListQuizQuestions возвращает активные вопросы викторины по порядку position.
// Результат кешируется; кеш сбрасывается при любом изменении банка вопросов.
func (s *QuestionService) ListQuizQuestions(ctx context.Context, quizID uint) ([]entity.Question, error) {
	key := questionsCacheKey(quizID)
	if s.cacheRepo != nil {
		var cached []entity.Question
		err := s.cacheRepo.GetJSON(key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuestionService] Ошибка чтения кеша %s: %v", key, err)
		}
	}

	questions, err := s.store.Questions().GetByQuizID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(key, questions, s.cacheTTL); err != nil {
			log.Printf("[QuestionService] Ошибка записи кеша %s: %v", key, err)
		}
	}
	return questions, nil
}

func (s *QuestionService) invalidate(quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(questionsCacheKey(quizID)); err != nil {
		log.Printf("[QuestionService] Ошибка сброса кеша вопросов викторины #%d: %v", quizID, err)
	}
}

// editableQuiz загружает викторину и проверяет, что пользователь может менять ее вопросы:
// он владелец и по викторине еще нет ни одной попытки.
func (s *QuestionService) editableQuiz(ctx context.Context, tx repository.Store, quizID, userID uint) (*entity.Quiz, error) {
	quiz, err := tx.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	if err := requireQuizOwner(quiz, userID); err != nil {
		return nil, err
	}
	count, err := tx.Attempts().CountByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrQuizLocked
	}
	return quiz, nil
}

func validatePoints(points int) error {
	if points <= 0 {
		return fmt.Errorf("%w: points must be a positive integer", apperrors.ErrValidation)
	}
	return nil
}

// CreateQuestion добавляет вопрос в викторину. Позиция должна быть свободна.
func (s *QuestionService) CreateQuestion(ctx context.Context, quizID, userID uint, in QuestionInput) (*entity.Question, error) {
	if !in.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown question kind %q", apperrors.ErrValidation, in.Kind)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}
	if in.Points == 0 {
		in.Points = 1
	}
	if err := validatePoints(in.Points); err != nil {
		return nil, err
	}
	if in.Kind == entity.QuestionKindFreeForm && len(in.Choices) > 0 {
		return nil, fmt.Errorf("%w: free-form question cannot have choices", apperrors.ErrValidation)
	}

	now := s.now()
	question := &entity.Question{
		QuizID:   quizID,
		Kind:     in.Kind,
		Position: in.Position,
		Content:  in.Content,
		Points:   in.Points,
	}
	if in.Kind == entity.QuestionKindFreeForm {
		question.ReferenceAnswer = in.ReferenceAnswer
	}
	for _, c := range in.Choices {
		choice := entity.Choice{Position: c.Position, Text: c.Text, IsCorrect: c.IsCorrect}
		entity.Stamp(&choice, userID, now)
		question.Choices = append(question.Choices, choice)
	}
	entity.Stamp(question, userID, now)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.editableQuiz(ctx, tx, quizID, userID); err != nil {
			return err
		}
		return tx.Questions().Create(ctx, question)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(quizID)
	log.Printf("[QuestionService] В викторину #%d добавлен вопрос #%d (%s, позиция %d)", quizID, question.ID, question.Kind, question.Position)
	return question, nil
}

// GetQuestion возвращает вопрос и признак того, что вызывающий может видеть правильные ответы
func (s *QuestionService) GetQuestion(ctx context.Context, questionID, callerID uint) (*entity.Question, bool, error) {
	question, err := s.store.Questions().GetByID(ctx, questionID)
	if err != nil {
		return nil, false, fmt.Errorf("question #%d: %w", questionID, err)
	}
	quiz, err := s.store.Quizzes().GetByID(ctx, question.QuizID)
	if err != nil {
		return nil, false, fmt.Errorf("quiz #%d: %w", question.QuizID, err)
	}
	return question, IsOwner(quiz, callerID), nil
}

// UpdateQuestion частично обновляет вопрос
func (s *QuestionService) UpdateQuestion(ctx context.Context, questionID, userID uint, patch QuestionPatch) (*entity.Question, error) {
	var updated *entity.Question
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		question, err := tx.Questions().GetByID(ctx, questionID)
		if err != nil {
			return fmt.Errorf("question #%d: %w", questionID, err)
		}
		if _, err := s.editableQuiz(ctx, tx, question.QuizID, userID); err != nil {
			return err
		}

		if patch.Position != nil {
			question.Position = *patch.Position
		}
		if patch.Content != nil {
			if strings.TrimSpace(*patch.Content) == "" {
				return fmt.Errorf("%w: content is required", apperrors.ErrValidation)
			}
			question.Content = *patch.Content
		}
		if patch.Points != nil {
			if err := validatePoints(*patch.Points); err != nil {
				return err
			}
			question.Points = *patch.Points
		}
		if patch.ReferenceAnswer != nil {
			if !question.IsFreeForm() {
				return fmt.Errorf("%w: only free-form questions have a reference answer", apperrors.ErrValidation)
			}
			question.ReferenceAnswer = *patch.ReferenceAnswer
		}

		entity.Stamp(question, userID, s.now())
		if err := tx.Questions().Update(ctx, question); err != nil {
			return err
		}
		updated = question
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(updated.QuizID)
	return updated, nil
}

// DeleteQuestion помечает вопрос и его варианты удаленными
func (s *QuestionService) DeleteQuestion(ctx context.Context, questionID, userID uint) error {
	var quizID uint
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		question, err := tx.Questions().GetByID(ctx, questionID)
		if err != nil {
			return fmt.Errorf("question #%d: %w", questionID, err)
		}
		if _, err := s.editableQuiz(ctx, tx, question.QuizID, userID); err != nil {
			return err
		}
		quizID = question.QuizID
		entity.Deactivate(question, userID, s.now())
		return tx.Questions().SoftDelete(ctx, question)
	})
	if err != nil {
		return err
	}

	s.invalidate(quizID)
	log.Printf("[QuestionService] Вопрос #%d викторины #%d удален пользователем #%d", questionID, quizID, userID)
	return nil
}

// AddChoice добавляет вариант ответа к вопросу MULTI_CHOICE
func (s *QuestionService) AddChoice(ctx context.Context, questionID, userID uint, in ChoiceInput) (*entity.Choice, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: choice text is required", apperrors.ErrValidation)
	}

	choice := &entity.Choice{
		QuestionID: questionID,
		Position:   in.Position,
		Text:       in.Text,
		IsCorrect:  in.IsCorrect,
	}
	var quizID uint
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		question, err := tx.Questions().GetByID(ctx, questionID)
		if err != nil {
			return fmt.Errorf("question #%d: %w", questionID, err)
		}
		if !question.IsMultiChoice() {
			return fmt.Errorf("%w: choices can only be added to multi-choice questions", apperrors.ErrValidation)
		}
		if _, err := s.editableQuiz(ctx, tx, question.QuizID, userID); err != nil {
			return err
		}
		quizID = question.QuizID
		entity.Stamp(choice, userID, s.now())
		return tx.Choices().Create(ctx, choice)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(quizID)
	return choice, nil
}

// choiceInEditableQuiz загружает вариант и проверяет права на изменение его викторины
func (s *QuestionService) choiceInEditableQuiz(ctx context.Context, tx repository.Store, choiceID, userID uint) (*entity.Choice, uint, error) {
	choice, err := tx.Choices().GetByID(ctx, choiceID)
	if err != nil {
		return nil, 0, fmt.Errorf("choice #%d: %w", choiceID, err)
	}
	question, err := tx.Questions().GetByID(ctx, choice.QuestionID)
	if err != nil {
		return nil, 0, fmt.Errorf("question #%d: %w", choice.QuestionID, err)
	}
	if _, err := s.editableQuiz(ctx, tx, question.QuizID, userID); err != nil {
		return nil, 0, err
	}
	return choice, question.QuizID, nil
}

// UpdateChoice частично обновляет вариант ответа
func (s *QuestionService) UpdateChoice(ctx context.Context, choiceID, userID uint, patch ChoicePatch) (*entity.Choice, error) {
	var (
		updated *entity.Choice
		quizID  uint
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		choice, qid, err := s.choiceInEditableQuiz(ctx, tx, choiceID, userID)
		if err != nil {
			return err
		}
		quizID = qid

		if patch.Position != nil {
			choice.Position = *patch.Position
		}
		if patch.Text != nil {
			if strings.TrimSpace(*patch.Text) == "" {
				return fmt.Errorf("%w: choice text is required", apperrors.ErrValidation)
			}
			choice.Text = *patch.Text
		}
		if patch.IsCorrect != nil {
			choice.IsCorrect = *patch.IsCorrect
		}

		entity.Stamp(choice, userID, s.now())
		if err := tx.Choices().Update(ctx, choice); err != nil {
			return err
		}
		updated = choice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(quizID)
	return updated, nil
}

// DeleteChoice помечает вариант ответа удаленным
func (s *QuestionService) DeleteChoice(ctx context.Context, choiceID, userID uint) error {
	var quizID uint
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		choice, qid, err := s.choiceInEditableQuiz(ctx, tx, choiceID, userID)
		if err != nil {
			return err
		}
		quizID = qid
		entity.Deactivate(choice, userID, s.now())
		return tx.Choices().SoftDelete(ctx, choice)
	})
	if err != nil {
		return err
	}

	s.invalidate(quizID)
	return nil
}
